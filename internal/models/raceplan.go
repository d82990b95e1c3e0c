// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

// Raceplan is the schedule of all races for one event. Races holds the
// race ids in no particular order; reads sort the hydrated races by
// their order field.
//
// NoOfContestants is the planned total across raceclasses at generation
// time and is kept in step with start-entry bookkeeping afterwards.
type Raceplan struct {
	ID              string   `json:"id"`
	EventID         string   `json:"event_id" validate:"required"`
	NoOfContestants int      `json:"no_of_contestants" validate:"gte=0"`
	Races           []string `json:"races"`
}

// RaceplanDetail is a raceplan with its races hydrated and sorted by
// order, as returned by GET /raceplans/{raceplanId}.
type RaceplanDetail struct {
	Raceplan
	Races []Race `json:"races"`
}
