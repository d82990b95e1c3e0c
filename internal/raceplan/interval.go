// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package raceplan

import (
	"time"

	"github.com/tomtom215/heatsheet/internal/models"
)

// generateIntervalStart emits one race per raceclass. Contestants
// start one by one, so after scheduling a race the clock advances by
// the class size times the start interval before the next class gets
// its gap.
func generateIntervalStart(in Input, classes []models.Raceclass, start time.Time, pauses timing) ([]models.Race, error) {
	if in.Format.Intervals == "" {
		return nil, models.Validationf("format %s is interval start but has no intervals", in.Format.Name)
	}

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

		// Counts stay zero until startlist generation seeds the race;
		// the class size only caps the field.
		races = append(races, models.Race{
			Raceclass:          rc.Name,
			StartTime:          clock,
			MaxNoOfContestants: rc.NoOfContestants,
			Datatype:           models.RaceDatatypeIntervalStart,
		})

		clock = clock.Add(time.Duration(rc.NoOfContestants) * pauses.intervals)
	}
	return races, nil
}
