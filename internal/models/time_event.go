// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

// TimeEvent is one timing observation: a contestant (bib) passing a
// timing point of a race at a clock reading. Events are append-only;
// corrections happen by deletion and re-ingestion.
//
// Status records processing outcome: "OK" when the event was attached
// to a race result, "Error" when it was persisted but rejected, with
// the reason in the changelog. Rank and the next_race fields are
// derived by the ranking and propagation machinery.
type TimeEvent struct {
	ID               string      `json:"id"`
	EventID          string      `json:"event_id" validate:"required"`
	Bib              int         `json:"bib" validate:"required,gt=0"`
	Name             string      `json:"name,omitempty"`
	Club             string      `json:"club,omitempty"`
	Race             string      `json:"race,omitempty"`
	RaceID           string      `json:"race_id,omitempty"`
	TimingPoint      string      `json:"timing_point" validate:"required"`
	RegistrationTime string      `json:"registration_time" validate:"required"`
	Rank             *int        `json:"rank,omitempty"`
	NextRace         string      `json:"next_race,omitempty"`
	NextRaceID       string      `json:"next_race_id,omitempty"`
	NextRacePosition *int        `json:"next_race_position,omitempty"`
	Status           string      `json:"status,omitempty"`
	Changelog        []Changelog `json:"changelog,omitempty"`
}
