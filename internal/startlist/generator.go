// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package startlist deals an event's contestants into the races of its
// raceplan. Contestants arrive from the event service in seeded order;
// the generator preserves that order, dealing heats serpentine style so
// each heat gets an even spread of seeds.
//
// Like raceplan generation, this is pure computation. The command
// layer persists the startlist, its entries, and the updated races in
// one transaction.
package startlist

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/models"
)

// Input carries the event documents and the stored raceplan races.
type Input struct {
	Event       models.Event
	Format      models.CompetitionFormat
	Raceclasses []models.Raceclass
	Contestants []models.Contestant
	Races       []models.Race
}

// Output is the generated startlist with its entries, plus the races
// updated with entry references and, for single-race formats, their
// contestant counts.
type Output struct {
	Startlist    models.Startlist
	StartEntries []models.StartEntry
	Races        []models.Race
}

// Generate builds the startlist for one event. Every contestant is
// placed in each opening-round race of their raceclass; non-ranked
// sprint classes are additionally seeded into every later round since
// nobody is eliminated.
func Generate(in Input) (*Output, error) {
	interval, err := startInterval(in.Format)
	if err != nil {
		return nil, err
	}

	byClass, err := contestantsByRaceclass(in.Raceclasses, in.Contestants)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Startlist: models.Startlist{
			ID:           uuid.New().String(),
			EventID:      in.Event.ID,
			StartEntries: []string{},
		},
		Races: make([]models.Race, len(in.Races)),
	}
	copy(out.Races, in.Races)

	for i := range out.Races {
		if out.Races[i].StartEntries == nil {
			out.Races[i].StartEntries = []string{}
		}
	}

	for _, rc := range in.Raceclasses {
		contestants := byClass[rc.Name]
		if len(contestants) == 0 {
			continue
		}
		races := classRaces(out.Races, rc.Name)
		if len(races) == 0 {
			return nil, models.Validationf("raceplan has no races for raceclass %s", rc.Name)
		}
		out.Startlist.NoOfContestants += len(contestants)

		for _, group := range seedableRounds(races, rc.Ranking) {
			entries, err := dealRound(out, group, contestants, interval)
			if err != nil {
				return nil, err
			}
			out.StartEntries = append(out.StartEntries, entries...)
		}
	}

	for i := range out.StartEntries {
		out.StartEntries[i].StartlistID = out.Startlist.ID
		out.Startlist.StartEntries = append(out.Startlist.StartEntries, out.StartEntries[i].ID)
	}
	return out, nil
}

// startInterval parses the format's start interval. Only interval
// start races space their contestants; every other format starts the
// whole field on the race's start time.
func startInterval(format models.CompetitionFormat) (time.Duration, error) {
	if format.Datatype != models.RaceDatatypeIntervalStart {
		return 0, nil
	}
	if format.Intervals == "" {
		return 0, models.Validationf("format %s is interval start but has no intervals", format.Name)
	}
	interval, err := models.ParseHHMMSS(format.Intervals)
	if err != nil {
		return 0, models.Validationf("format %s: %v", format.Name, err)
	}
	return interval, nil
}

// contestantsByRaceclass resolves each contestant's raceclass through
// its ageclass, preserving the seeded arrival order within each class.
func contestantsByRaceclass(raceclasses []models.Raceclass, contestants []models.Contestant) (map[string][]models.Contestant, error) {
	classByAgeclass := map[string]string{}
	for _, rc := range raceclasses {
		classByAgeclass[rc.Name] = rc.Name
		for _, ac := range rc.Ageclasses {
			classByAgeclass[ac] = rc.Name
		}
	}

	byClass := map[string][]models.Contestant{}
	for _, c := range contestants {
		class, ok := classByAgeclass[c.Ageclass]
		if !ok {
			return nil, models.Validationf(
				"contestant with bib %d has ageclass %q which maps to no raceclass", c.Bib, c.Ageclass)
		}
		byClass[class] = append(byClass[class], c)
	}
	return byClass, nil
}

// classRaces returns pointers into races for one raceclass, in
// schedule order.
func classRaces(races []models.Race, class string) []*models.Race {
	var out []*models.Race
	for i := range races {
		if races[i].Raceclass == class {
			out = append(out, &races[i])
		}
	}
	return out
}

// seedableRounds groups a class's races into the rounds the startlist
// seeds directly. For ranked classes that is just the opening round,
// the round no advancement rule feeds. Non-ranked classes race every
// round with the same field, so each round is dealt identically.
func seedableRounds(races []*models.Race, ranking bool) [][]*models.Race {
	fed := map[[2]string]bool{}
	for _, race := range races {
		for round, indexes := range race.Rule {
			for index := range indexes {
				fed[[2]string{round, index}] = true
			}
		}
	}

	grouped := map[string][]*models.Race{}
	var order []string
	for _, race := range races {
		if !ranking || !fed[[2]string{race.Round, race.Index}] {
			if _, ok := grouped[race.Round]; !ok {
				order = append(order, race.Round)
			}
			grouped[race.Round] = append(grouped[race.Round], race)
		}
	}

	// Interval and single-race formats carry no round label; their one
	// group is the class's races themselves.
	rounds := make([][]*models.Race, 0, len(order))
	for _, round := range order {
		heats := grouped[round]
		sort.SliceStable(heats, func(i, j int) bool { return heats[i].Heat < heats[j].Heat })
		rounds = append(rounds, heats)
	}
	return rounds
}

// dealRound deals contestants into the heats of one round. Heats are
// filled serpentine: first seed to heat 1, then 2 up to H, then back
// down from H to 1, skipping heats that have reached their planned
// count. Starting positions are dense per heat, and interval starts
// space scheduled times by the start interval.
func dealRound(out *Output, heats []*models.Race, contestants []models.Contestant, interval time.Duration) ([]models.StartEntry, error) {
	capacity := make([]int, len(heats))
	for i, race := range heats {
		capacity[i] = race.NoOfContestants
		if capacity[i] == 0 {
			// Interval and single-race formats plan without counts;
			// the whole field fits up to the race maximum.
			capacity[i] = race.MaxNoOfContestants
		}
	}

	var entries []models.StartEntry
	positions := make([]int, len(heats))
	heat, step := 0, 1
	for _, c := range contestants {
		tried := 0
		for positions[heat] >= capacity[heat] {
			heat, step = advanceSerpentine(heat, step, len(heats))
			tried++
			if tried > 2*len(heats) {
				return nil, models.Conflictf(
					"race %s is full (max %d)", heats[heat].Name(), capacity[heat])
			}
		}

		race := heats[heat]
		positions[heat]++
		scheduled := race.StartTime
		if interval > 0 {
			scheduled = scheduled.Add(time.Duration(positions[heat]-1) * interval)
		}
		entry := models.StartEntry{
			ID:                 uuid.New().String(),
			RaceID:             race.ID,
			Bib:                c.Bib,
			Name:               c.FullName(),
			Club:               c.Club,
			StartingPosition:   positions[heat],
			ScheduledStartTime: scheduled,
		}
		entries = append(entries, entry)
		race.StartEntries = append(race.StartEntries, entry.ID)
		if race.Datatype != models.RaceDatatypeIndividualSprint {
			race.NoOfContestants = len(race.StartEntries)
		}

		heat, step = advanceSerpentine(heat, step, len(heats))
	}
	return entries, nil
}

// advanceSerpentine steps to the next heat. Direction reverses at
// both ends with the end heat dealt twice, so dealing runs 1..H then
// H..1 and the outer heats are not starved of good seeds.
func advanceSerpentine(heat, step, heats int) (int, int) {
	if heats == 1 {
		return 0, 1
	}
	if next := heat + step; next >= 0 && next < heats {
		return next, step
	}
	return heat, -step
}
