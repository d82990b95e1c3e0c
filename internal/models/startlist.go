// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

import "time"

// Startlist is the event-wide roster of start entries. StartEntries
// holds entry ids; StartlistDetail carries the hydrated form.
type Startlist struct {
	ID              string   `json:"id"`
	EventID         string   `json:"event_id" validate:"required"`
	NoOfContestants int      `json:"no_of_contestants" validate:"gte=0"`
	StartEntries    []string `json:"start_entries"`
}

// StartlistDetail is a startlist with entries hydrated, as returned by
// GET /startlists/{startlistId}.
type StartlistDetail struct {
	Startlist
	StartEntries []StartEntry `json:"start_entries"`
}

// StartEntry places one contestant in one race. Within a race, bibs
// and starting positions are unique. Status is set by the race office:
// empty until recorded, then OK, DNS, DNF, or DSQ.
type StartEntry struct {
	ID                 string      `json:"id"`
	StartlistID        string      `json:"startlist_id" validate:"required"`
	RaceID             string      `json:"race_id" validate:"required"`
	Bib                int         `json:"bib" validate:"required,gt=0"`
	Name               string      `json:"name" validate:"required"`
	Club               string      `json:"club,omitempty"`
	StartingPosition   int         `json:"starting_position" validate:"required,gt=0"`
	ScheduledStartTime time.Time   `json:"scheduled_start_time"`
	ActualStartTime    *time.Time  `json:"actual_start_time,omitempty"`
	Status             string      `json:"status,omitempty"`
	Changelog          []Changelog `json:"changelog,omitempty"`
}
