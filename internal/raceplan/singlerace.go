// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package raceplan

import (
	"time"

	"github.com/tomtom215/heatsheet/internal/models"
)

// generateSingleRaces covers the formats where each raceclass runs as
// one race: mass start, skiathlon, pursuit, team sprint, and relay.
// Contestant counts are left for the startlist generator since team
// formats field fewer starters than registered skiers.
func generateSingleRaces(in Input, classes []models.Raceclass, start time.Time, pauses timing) ([]models.Race, error) {
	races := make([]models.Race, 0, len(classes))
	clock := start
	for i, rc := range classes {
		if i > 0 {
			if rc.Group != classes[i-1].Group {
				clock = clock.Add(pauses.betweenGroups)
			} else {
				clock = clock.Add(pauses.betweenRaces)
			}
		}

		maxContestants := in.Format.MaxNoOfContestantsInRace
		if maxContestants <= 0 {
			maxContestants = rc.NoOfContestants
		}
		races = append(races, models.Race{
			Raceclass:          rc.Name,
			StartTime:          clock,
			MaxNoOfContestants: maxContestants,
			Datatype:           in.Format.Datatype,
		})
	}
	return races, nil
}
