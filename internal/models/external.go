// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

import (
	"fmt"
	"time"
)

// Event is the event document owned by the event service.
type Event struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DateOfEvent       string `json:"date_of_event"`
	TimeOfEvent       string `json:"time_of_event"`
	Timezone          string `json:"timezone,omitempty"`
	CompetitionFormat string `json:"competition_format"`
	Organiser         string `json:"organiser,omitempty"`
	Webpage           string `json:"webpage,omitempty"`
	Information       string `json:"information,omitempty"`
}

// StartDateTime combines date_of_event and time_of_event into the
// moment the first race starts. Times are treated as UTC throughout;
// the venue timezone only affects display.
func (e Event) StartDateTime() (time.Time, error) {
	if e.DateOfEvent == "" {
		return time.Time{}, fmt.Errorf("event %s has no date_of_event", e.ID)
	}
	if e.TimeOfEvent == "" {
		return time.Time{}, fmt.Errorf("event %s has no time_of_event", e.ID)
	}
	t, err := time.Parse("2006-01-02T15:04:05", e.DateOfEvent+"T"+e.TimeOfEvent)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s has malformed date/time: %w", e.ID, err)
	}
	return t.UTC(), nil
}

// CompetitionFormat describes how an event is raced, owned by the
// competition format service. Interval formats carry Intervals; sprint
// formats carry the knockout round lists and progression matrices.
type CompetitionFormat struct {
	Name                          string       `json:"name"`
	Datatype                      string       `json:"datatype,omitempty"`
	StartingOrder                 string       `json:"starting_order,omitempty"`
	StartProcedure                string       `json:"start_procedure,omitempty"`
	Intervals                     string       `json:"intervals,omitempty"`
	TimeBetweenGroups             string       `json:"time_between_groups,omitempty"`
	TimeBetweenRounds             string       `json:"time_between_rounds,omitempty"`
	TimeBetweenHeats              string       `json:"time_between_heats,omitempty"`
	TimeBetweenRaces              string       `json:"time_between_races,omitempty"`
	MaxNoOfContestantsInRaceclass int          `json:"max_no_of_contestants_in_raceclass,omitempty"`
	MaxNoOfContestantsInRace      int          `json:"max_no_of_contestants_in_race,omitempty"`
	RoundsRankedClasses           []string     `json:"rounds_ranked_classes,omitempty"`
	RoundsNonRankedClasses        []string     `json:"rounds_non_ranked_classes,omitempty"`
	RaceConfigRanked              []RaceConfig `json:"race_config_ranked,omitempty"`
	RaceConfigNonRanked           []RaceConfig `json:"race_config_non_ranked,omitempty"`
}

// RaceConfig is one row of a progression matrix: for a bracket sized
// for up to MaxNoOfContestants, how many heats each round or index has
// and how qualifiers flow between them.
type RaceConfig struct {
	MaxNoOfContestants int                                   `json:"max_no_of_contestants"`
	Rounds             []string                              `json:"rounds"`
	NoOfHeats          map[string]map[string]int             `json:"no_of_heats"`
	FromTo             map[string]map[string]AdvancementRule `json:"from_to"`
}

// Raceclass groups contestants that race together, owned by the event
// service. Group and Order place the class in the day's schedule;
// Ranking distinguishes seeded knockout classes from the youngest
// classes that race all rounds without elimination.
type Raceclass struct {
	ID              string   `json:"id,omitempty"`
	Name            string   `json:"name"`
	Ageclasses      []string `json:"ageclasses,omitempty"`
	EventID         string   `json:"event_id,omitempty"`
	Group           int      `json:"group"`
	Order           int      `json:"order"`
	Ranking         bool     `json:"ranking"`
	Seeding         bool     `json:"seeding,omitempty"`
	Distance        string   `json:"distance,omitempty"`
	NoOfContestants int      `json:"no_of_contestants"`
}

// Contestant is one registered participant, owned by the event service.
// Contestants arrive in seeded order; the startlist generator preserves
// that order when dealing heats.
type Contestant struct {
	ID            string `json:"id,omitempty"`
	Bib           int    `json:"bib"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	BirthDate     string `json:"birth_date,omitempty"`
	Gender        string `json:"gender,omitempty"`
	Ageclass      string `json:"ageclass"`
	Region        string `json:"region,omitempty"`
	Club          string `json:"club,omitempty"`
	Team          string `json:"team,omitempty"`
	Email         string `json:"email,omitempty"`
	EventID       string `json:"event_id,omitempty"`
	SeedingPoints *int   `json:"seeding_points,omitempty"`
}

// FullName returns the contestant's display name as used on start
// entries and scoreboards.
func (c Contestant) FullName() string {
	return c.FirstName + " " + c.LastName
}
