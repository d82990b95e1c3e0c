// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package raceplan

import (
	"fmt"

	"github.com/tomtom215/heatsheet/internal/models"
)

// Diagnostics is the report produced by validating a stored raceplan
// against its event's raceclasses.
type Diagnostics struct {
	NoOfErrors int      `json:"no_of_errors"`
	Results    []string `json:"results"`
}

// Validate inspects a plan and its races for the mistakes an organiser
// would want flagged before printing startlists: races out of
// chronological order, empty races, and a plan total that does not
// match either the first-round race counts or the raceclass counts.
func Validate(plan models.Raceplan, races []models.Race, raceclasses []models.Raceclass) Diagnostics {
	diag := Diagnostics{Results: []string{}}

	for i := 1; i < len(races); i++ {
		if races[i].StartTime.Before(races[i-1].StartTime) {
			diag.report("race %d (%s) starts %s, before race %d (%s) at %s",
				races[i].Order, races[i].Name(), races[i].StartTime.Format("15:04:05"),
				races[i-1].Order, races[i-1].Name(), races[i-1].StartTime.Format("15:04:05"))
		}
	}

	fed := feedTargets(races)
	firstRound := 0
	for _, race := range races {
		if race.NoOfContestants == 0 && race.Datatype == models.RaceDatatypeIntervalStart {
			diag.report("race %d (%s) has no contestants", race.Order, race.Name())
		}
		if isFirstRound(race, fed) {
			firstRound += race.NoOfContestants
		}
	}

	if firstRound != plan.NoOfContestants {
		diag.report("plan total %d does not match first round total %d",
			plan.NoOfContestants, firstRound)
	}

	classTotal := 0
	for _, rc := range raceclasses {
		classTotal += rc.NoOfContestants
	}
	if classTotal != plan.NoOfContestants {
		diag.report("plan total %d does not match raceclass total %d",
			plan.NoOfContestants, classTotal)
	}

	return diag
}

func (d *Diagnostics) report(format string, args ...any) {
	d.NoOfErrors++
	d.Results = append(d.Results, fmt.Sprintf(format, args...))
}

// feedTargets collects, per raceclass, every (round, index) some rule
// advances qualifiers into. Races not fed by any rule form the first
// round of their class.
func feedTargets(races []models.Race) map[string]map[[2]string]bool {
	fed := map[string]map[[2]string]bool{}
	for _, race := range races {
		for round, indexes := range race.Rule {
			for index := range indexes {
				if fed[race.Raceclass] == nil {
					fed[race.Raceclass] = map[[2]string]bool{}
				}
				fed[race.Raceclass][[2]string{round, index}] = true
			}
		}
	}
	return fed
}

// isFirstRound reports whether a race seats contestants straight from
// registration rather than from an earlier round.
func isFirstRound(race models.Race, fed map[string]map[[2]string]bool) bool {
	if race.Datatype != models.RaceDatatypeIndividualSprint {
		return true
	}
	return !fed[race.Raceclass][[2]string{race.Round, race.Index}]
}
