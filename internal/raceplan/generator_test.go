// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package raceplan

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/heatsheet/internal/models"
)

func testEvent() models.Event {
	return models.Event{
		ID:          "event-1",
		Name:        "Winter Games",
		DateOfEvent: "2026-03-01",
		TimeOfEvent: "09:00:00",
	}
}

func intervalFormat() models.CompetitionFormat {
	return models.CompetitionFormat{
		Name:              "Interval Start",
		Datatype:          models.RaceDatatypeIntervalStart,
		Intervals:         "00:00:30",
		TimeBetweenGroups: "00:10:00",
		TimeBetweenRaces:  "00:01:30",
	}
}

func sprintFormat() models.CompetitionFormat {
	return models.CompetitionFormat{
		Name:              "Individual Sprint",
		Datatype:          models.RaceDatatypeIndividualSprint,
		TimeBetweenGroups: "00:10:00",
		TimeBetweenRounds: "00:05:00",
		TimeBetweenHeats:  "00:02:30",
	}
}

func TestGenerateIntervalStart(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: intervalFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "G13", Group: 1, Order: 2, Ranking: true, NoOfContestants: 8},
			{Name: "G12", Group: 1, Order: 1, Ranking: true, NoOfContestants: 10},
			{Name: "G16", Group: 2, Order: 1, Ranking: true, NoOfContestants: 4},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(out.Races) != 3 {
		t.Fatalf("got %d races, want 3", len(out.Races))
	}
	if out.Plan.EventID != "event-1" {
		t.Errorf("plan event id = %q, want event-1", out.Plan.EventID)
	}
	if out.Plan.NoOfContestants != 22 {
		t.Errorf("plan no_of_contestants = %d, want 22", out.Plan.NoOfContestants)
	}
	if len(out.Plan.Races) != 3 {
		t.Errorf("plan references %d races, want 3", len(out.Plan.Races))
	}

	// Classes sorted by (group, order) regardless of input order.
	wantOrder := []string{"G12", "G13", "G16"}
	for i, want := range wantOrder {
		if out.Races[i].Raceclass != want {
			t.Errorf("race %d raceclass = %q, want %q", i, out.Races[i].Raceclass, want)
		}
		if out.Races[i].Order != i+1 {
			t.Errorf("race %d order = %d, want %d", i, out.Races[i].Order, i+1)
		}
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	wantTimes := []time.Time{
		start,
		// 10 starters at 30s, then the race pause.
		start.Add(10*30*time.Second + 90*time.Second),
		// 8 more starters, then the group pause.
		start.Add(10*30*time.Second + 90*time.Second + 8*30*time.Second + 10*time.Minute),
	}
	for i, want := range wantTimes {
		if !out.Races[i].StartTime.Equal(want) {
			t.Errorf("race %d start = %v, want %v", i, out.Races[i].StartTime, want)
		}
	}

	// Seeding fills the counts later; the plan only carries the cap.
	if out.Races[0].NoOfContestants != 0 || out.Races[0].MaxNoOfContestants != 10 {
		t.Errorf("race 0 count/max = %d/%d, want 0/10",
			out.Races[0].NoOfContestants, out.Races[0].MaxNoOfContestants)
	}
	if out.Races[0].Datatype != models.RaceDatatypeIntervalStart {
		t.Errorf("race 0 datatype = %q", out.Races[0].Datatype)
	}
}

func TestGenerateIntervalStartRequiresIntervals(t *testing.T) {
	format := intervalFormat()
	format.Intervals = ""
	_, err := Generate(Input{
		Event:       testEvent(),
		Format:      format,
		Raceclasses: []models.Raceclass{{Name: "G12", Group: 1, Order: 1, NoOfContestants: 5}},
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Generate() error = %v, want validation", err)
	}
}

func TestGenerateSprintSixteen(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "J15", Group: 1, Order: 1, Ranking: true, NoOfContestants: 16},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	type shape struct {
		name  string
		count int
		max   int
	}
	want := []shape{
		{"SA-1", 8, 8},
		{"SA-2", 8, 8},
		{"FB-1", 8, 8},
		{"FA-1", 8, 8},
	}
	if len(out.Races) != len(want) {
		t.Fatalf("got %d races, want %d", len(out.Races), len(want))
	}
	for i, w := range want {
		r := out.Races[i]
		if r.Name() != w.name {
			t.Errorf("race %d = %s, want %s", i, r.Name(), w.name)
		}
		if r.NoOfContestants != w.count {
			t.Errorf("race %s no_of_contestants = %d, want %d", w.name, r.NoOfContestants, w.count)
		}
		if r.MaxNoOfContestants != w.max {
			t.Errorf("race %s max = %d, want %d", w.name, r.MaxNoOfContestants, w.max)
		}
	}

	// Semifinals advance top 4 to the A final, the rest to the B final.
	rule := out.Races[0].Rule
	if rule == nil {
		t.Fatal("semifinal carries no rule")
	}
	if got := rule["F"]["A"]; got.Count != 4 || got.Keyword != "" {
		t.Errorf("SA rule F/A = %+v, want count 4", got)
	}
	if got := rule["F"]["B"]; !got.IsRest() {
		t.Errorf("SA rule F/B = %+v, want REST", got)
	}
	if out.Races[3].Rule != nil {
		t.Errorf("final carries a rule: %+v", out.Races[3].Rule)
	}

	// First heat at the event start, second after the heat pause, the
	// finals round after the round pause.
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	wantTimes := []time.Time{
		start,
		start.Add(150 * time.Second),
		start.Add(150*time.Second + 5*time.Minute),
		start.Add(150*time.Second + 5*time.Minute + 150*time.Second),
	}
	for i, w := range wantTimes {
		if !out.Races[i].StartTime.Equal(w) {
			t.Errorf("race %d start = %v, want %v", i, out.Races[i].StartTime, w)
		}
	}
}

func TestGenerateSprintThirtyTwo(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "J16", Group: 1, Order: 1, Ranking: true, NoOfContestants: 32},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var names []string
	for _, r := range out.Races {
		names = append(names, r.Name())
	}
	want := []string{"Q-1", "Q-2", "Q-3", "Q-4", "SC-1", "SC-2", "SA-1", "SA-2", "FC-1", "FB-1", "FA-1"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("race sequence = %v, want %v", names, want)
	}

	for _, r := range out.Races {
		switch {
		case r.Round == "Q":
			if r.NoOfContestants != 8 || r.MaxNoOfContestants != 8 {
				t.Errorf("%s: count %d max %d, want 8/8", r.Name(), r.NoOfContestants, r.MaxNoOfContestants)
			}
		case r.Round == "S":
			if r.NoOfContestants != 8 || r.MaxNoOfContestants != 8 {
				t.Errorf("%s: count %d max %d, want 8/8", r.Name(), r.NoOfContestants, r.MaxNoOfContestants)
			}
		case r.Round == "F":
			if r.NoOfContestants != 8 {
				t.Errorf("%s: count %d, want 8", r.Name(), r.NoOfContestants)
			}
		}
	}
}

func TestGenerateSprintTwentyFour(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "J17", Group: 1, Order: 1, Ranking: true, NoOfContestants: 23},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	counts := map[string]int{}
	for _, r := range out.Races {
		counts[r.Name()] = r.NoOfContestants
	}
	// 23 contestants land in the 24 row: three quarterfinals of 8, 8,
	// and 7, top five of each to the semis, the rest straight to the C
	// final.
	want := map[string]int{
		"Q-1": 8, "Q-2": 8, "Q-3": 7,
		"SA-1": 8, "SA-2": 7,
		"FC-1": 8, "FB-1": 7, "FA-1": 8,
	}
	if len(counts) != len(want) {
		t.Fatalf("got races %v, want %v", counts, want)
	}
	for name, n := range want {
		if counts[name] != n {
			t.Errorf("%s no_of_contestants = %d, want %d", name, counts[name], n)
		}
	}
}

func TestGenerateSprintSeven(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "G11", Group: 1, Order: 1, Ranking: true, NoOfContestants: 7},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out.Races) != 2 {
		t.Fatalf("got %d races, want 2", len(out.Races))
	}
	if out.Races[0].Name() != "SA-1" || out.Races[1].Name() != "FA-1" {
		t.Errorf("race sequence = %s, %s", out.Races[0].Name(), out.Races[1].Name())
	}
	if !out.Races[0].Rule["F"]["A"].IsAll() {
		t.Errorf("SA rule F/A = %+v, want ALL", out.Races[0].Rule["F"]["A"])
	}
	if out.Races[1].NoOfContestants != 7 {
		t.Errorf("final no_of_contestants = %d, want 7", out.Races[1].NoOfContestants)
	}
}

func TestGenerateSprintNonRanked(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "G9", Group: 1, Order: 1, Ranking: false, NoOfContestants: 15},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var names []string
	for _, r := range out.Races {
		names = append(names, r.Name())
	}
	want := []string{"R1-1", "R1-2", "R2-1", "R2-2"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("race sequence = %v, want %v", names, want)
	}
	// Everybody advances, so the second round mirrors the first.
	if out.Races[2].NoOfContestants != 8 || out.Races[3].NoOfContestants != 7 {
		t.Errorf("R2 counts = %d, %d, want 8, 7",
			out.Races[2].NoOfContestants, out.Races[3].NoOfContestants)
	}
}

func TestGenerateSprintFieldTooLarge(t *testing.T) {
	_, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "M19", Group: 1, Order: 1, Ranking: true, NoOfContestants: 81},
		},
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Generate() error = %v, want validation", err)
	}
}

func TestGenerateUnknownDatatype(t *testing.T) {
	format := sprintFormat()
	format.Datatype = "downhill"
	_, err := Generate(Input{
		Event:       testEvent(),
		Format:      format,
		Raceclasses: []models.Raceclass{{Name: "G12", Group: 1, Order: 1, NoOfContestants: 5}},
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("Generate() error = %v, want validation", err)
	}
}

func TestGenerateSingleRace(t *testing.T) {
	format := models.CompetitionFormat{
		Name:                     "Mass Start",
		Datatype:                 models.RaceDatatypeMassStart,
		MaxNoOfContestantsInRace: 100,
	}
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: format,
		Raceclasses: []models.Raceclass{
			{Name: "M-Senior", Group: 1, Order: 1, Ranking: true, NoOfContestants: 40},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(out.Races) != 1 {
		t.Fatalf("got %d races, want 1", len(out.Races))
	}
	r := out.Races[0]
	if r.Datatype != models.RaceDatatypeMassStart {
		t.Errorf("datatype = %q", r.Datatype)
	}
	if r.NoOfContestants != 0 {
		t.Errorf("no_of_contestants = %d, want 0 until the startlist fills it", r.NoOfContestants)
	}
	if r.MaxNoOfContestants != 100 {
		t.Errorf("max = %d, want 100", r.MaxNoOfContestants)
	}
}

func TestSelectRaceConfig(t *testing.T) {
	tests := []struct {
		contestants int
		wantMax     int
	}{
		{1, 7},
		{7, 7},
		{8, 16},
		{16, 16},
		{17, 24},
		{24, 24},
		{25, 32},
		{80, 80},
	}
	for _, tt := range tests {
		row, err := SelectRaceConfig(BuiltinRankedConfig, tt.contestants)
		if err != nil {
			t.Fatalf("SelectRaceConfig(%d) error = %v", tt.contestants, err)
		}
		if row.MaxNoOfContestants != tt.wantMax {
			t.Errorf("SelectRaceConfig(%d) row = %d, want %d",
				tt.contestants, row.MaxNoOfContestants, tt.wantMax)
		}
	}

	if _, err := SelectRaceConfig(BuiltinRankedConfig, 81); !errors.Is(err, models.ErrValidation) {
		t.Errorf("SelectRaceConfig(81) error = %v, want validation", err)
	}
}

func TestValidateDiagnostics(t *testing.T) {
	out, err := Generate(Input{
		Event:  testEvent(),
		Format: sprintFormat(),
		Raceclasses: []models.Raceclass{
			{Name: "J15", Group: 1, Order: 1, Ranking: true, NoOfContestants: 16},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	raceclasses := []models.Raceclass{
		{Name: "J15", Group: 1, Order: 1, Ranking: true, NoOfContestants: 16},
	}

	diag := Validate(out.Plan, out.Races, raceclasses)
	if diag.NoOfErrors != 0 {
		t.Fatalf("clean plan reported %d errors: %v", diag.NoOfErrors, diag.Results)
	}

	// Tamper with the plan total and the schedule.
	out.Plan.NoOfContestants = 99
	out.Races[1].StartTime = out.Races[0].StartTime.Add(-time.Minute)
	diag = Validate(out.Plan, out.Races, raceclasses)
	if diag.NoOfErrors != 3 {
		t.Fatalf("tampered plan reported %d errors: %v", diag.NoOfErrors, diag.Results)
	}
}
