// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package raceplan turns an event, its competition format, and its
// raceclasses into the full schedule of races: one race per class for
// the individual-start family, or a complete knockout bracket per
// class for the individual sprint, wired together with advancement
// rules from the progression matrix.
//
// Generation is pure: it allocates ids and computes start times but
// performs no I/O. Persisting the plan atomically is the command
// layer's job.
package raceplan

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/models"
)

// Input carries everything generation needs, fetched upfront by the
// command layer.
type Input struct {
	Event       models.Event
	Format      models.CompetitionFormat
	Raceclasses []models.Raceclass
}

// Output is the generated plan with its races in schedule order.
// Races reference the plan and carry order 1..n.
type Output struct {
	Plan  models.Raceplan
	Races []models.Race
}

// timing holds the parsed format pauses. Heats of the same round are
// spaced by heat; rounds by round; groups of raceclasses by group.
type timing struct {
	intervals     time.Duration
	betweenRaces  time.Duration
	betweenHeats  time.Duration
	betweenRounds time.Duration
	betweenGroups time.Duration
}

// Default pauses used when the format omits one.
const (
	defaultBetweenRaces  = 90 * time.Second
	defaultBetweenRounds = 10 * time.Minute
	defaultBetweenGroups = 10 * time.Minute
)

func parseTiming(format models.CompetitionFormat) (timing, error) {
	t := timing{
		betweenRaces:  defaultBetweenRaces,
		betweenRounds: defaultBetweenRounds,
		betweenGroups: defaultBetweenGroups,
	}

	var err error
	if format.Intervals != "" {
		if t.intervals, err = models.ParseHHMMSS(format.Intervals); err != nil {
			return t, models.Validationf("format %s: %v", format.Name, err)
		}
	}
	if format.TimeBetweenRaces != "" {
		if t.betweenRaces, err = models.ParseHHMMSS(format.TimeBetweenRaces); err != nil {
			return t, models.Validationf("format %s: %v", format.Name, err)
		}
	}
	if format.TimeBetweenRounds != "" {
		if t.betweenRounds, err = models.ParseHHMMSS(format.TimeBetweenRounds); err != nil {
			return t, models.Validationf("format %s: %v", format.Name, err)
		}
	}
	if format.TimeBetweenGroups != "" {
		if t.betweenGroups, err = models.ParseHHMMSS(format.TimeBetweenGroups); err != nil {
			return t, models.Validationf("format %s: %v", format.Name, err)
		}
	}
	// Heats default to the race pause when the format does not space
	// them separately.
	t.betweenHeats = t.betweenRaces
	if format.TimeBetweenHeats != "" {
		if t.betweenHeats, err = models.ParseHHMMSS(format.TimeBetweenHeats); err != nil {
			return t, models.Validationf("format %s: %v", format.Name, err)
		}
	}
	return t, nil
}

// Generate builds the raceplan for one event. The format datatype
// selects the per-format algorithm; raceclasses are scheduled in
// (group, order) sequence starting at the event's start time.
func Generate(in Input) (*Output, error) {
	start, err := in.Event.StartDateTime()
	if err != nil {
		return nil, models.Validationf("%v", err)
	}

	pauses, err := parseTiming(in.Format)
	if err != nil {
		return nil, err
	}

	raceclasses := make([]models.Raceclass, len(in.Raceclasses))
	copy(raceclasses, in.Raceclasses)
	sort.SliceStable(raceclasses, func(i, j int) bool {
		if raceclasses[i].Group != raceclasses[j].Group {
			return raceclasses[i].Group < raceclasses[j].Group
		}
		return raceclasses[i].Order < raceclasses[j].Order
	})
	if len(raceclasses) == 0 {
		return nil, models.Validationf("event %s has no raceclasses", in.Event.ID)
	}

	plan := models.Raceplan{
		ID:      uuid.New().String(),
		EventID: in.Event.ID,
		Races:   []string{},
	}
	for _, rc := range raceclasses {
		plan.NoOfContestants += rc.NoOfContestants
	}

	var races []models.Race
	switch in.Format.Datatype {
	case models.RaceDatatypeIntervalStart:
		races, err = generateIntervalStart(in, raceclasses, start.Truncate(time.Second), pauses)
	case models.RaceDatatypeIndividualSprint:
		races, err = generateIndividualSprint(in, raceclasses, start.Truncate(time.Second), pauses)
	case models.RaceDatatypeMassStart, models.RaceDatatypeSkiathlon, models.RaceDatatypePursuit,
		models.RaceDatatypeTeamSprint, models.RaceDatatypeRelay:
		races, err = generateSingleRaces(in, raceclasses, start.Truncate(time.Second), pauses)
	default:
		return nil, models.Validationf("unsupported competition format datatype %q", in.Format.Datatype)
	}
	if err != nil {
		return nil, err
	}

	for i := range races {
		races[i].ID = uuid.New().String()
		races[i].Order = i + 1
		races[i].RaceplanID = plan.ID
		races[i].EventID = in.Event.ID
		if races[i].StartEntries == nil {
			races[i].StartEntries = []string{}
		}
		if races[i].Results == nil {
			races[i].Results = map[string]string{}
		}
		plan.Races = append(plan.Races, races[i].ID)
	}

	return &Output{Plan: plan, Races: races}, nil
}

// spreadContestants deals n contestants across heats as evenly as
// possible, earlier heats taking the remainder.
func spreadContestants(n, heats int) []int {
	counts := make([]int, heats)
	if heats == 0 {
		return counts
	}
	base, rem := n/heats, n%heats
	for i := range counts {
		counts[i] = base
		if i < rem {
			counts[i]++
		}
	}
	return counts
}

// ceilDiv is ⌈a/b⌉ for positive b.
func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}
