// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package timing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/heatsheet/internal/config"
	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return db
}

var heatStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// seedBracket stores a minimal sprint bracket: one semifinal of four
// feeding an A and a B final of two each.
func seedBracket(t *testing.T, db *database.DB) (sa, fa, fb models.Race) {
	t.Helper()
	ctx := context.Background()

	rule := models.AdvancementRule{
		"F": {
			"A": models.RuleTarget{Count: 2},
			"B": models.RuleTarget{Keyword: models.RuleKeywordRest},
		},
	}
	sa = models.Race{
		ID: "sa1", RaceplanID: "plan-1", EventID: "event-1", Raceclass: "J15",
		Order: 1, StartTime: heatStart, NoOfContestants: 4, MaxNoOfContestants: 4,
		Datatype: models.RaceDatatypeIndividualSprint,
		Round:    "S", Index: "A", Heat: 1, Rule: rule,
		StartEntries: []string{}, Results: map[string]string{},
	}
	fa = models.Race{
		ID: "fa1", RaceplanID: "plan-1", EventID: "event-1", Raceclass: "J15",
		Order: 2, StartTime: heatStart.Add(10 * time.Minute), MaxNoOfContestants: 2,
		Datatype: models.RaceDatatypeIndividualSprint,
		Round:    "F", Index: "A", Heat: 1,
		StartEntries: []string{}, Results: map[string]string{},
	}
	fb = models.Race{
		ID: "fb1", RaceplanID: "plan-1", EventID: "event-1", Raceclass: "J15",
		Order: 3, StartTime: heatStart.Add(7 * time.Minute), MaxNoOfContestants: 2,
		Datatype: models.RaceDatatypeIndividualSprint,
		Round:    "F", Index: "B", Heat: 1,
		StartEntries: []string{}, Results: map[string]string{},
	}

	plan := models.Raceplan{ID: "plan-1", EventID: "event-1", NoOfContestants: 4,
		Races: []string{sa.ID, fa.ID, fb.ID}}
	if err := db.CreateRaceplan(ctx, &plan); err != nil {
		t.Fatalf("create raceplan: %v", err)
	}
	for _, race := range []models.Race{sa, fa, fb} {
		race := race
		if err := db.CreateRace(ctx, &race); err != nil {
			t.Fatalf("create race %s: %v", race.ID, err)
		}
	}
	for bib := 1; bib <= 4; bib++ {
		entry := models.StartEntry{
			ID:                 fmt.Sprintf("entry-%d", bib),
			StartlistID:        "startlist-1",
			RaceID:             sa.ID,
			Bib:                bib,
			Name:               fmt.Sprintf("Skier %d", bib),
			StartingPosition:   bib,
			ScheduledStartTime: heatStart,
		}
		if err := db.CreateStartEntry(ctx, &entry); err != nil {
			t.Fatalf("create start entry: %v", err)
		}
	}
	return sa, fa, fb
}

func finishEvent(id string, bib int, registration string) *models.TimeEvent {
	return &models.TimeEvent{
		ID:               id,
		EventID:          "event-1",
		RaceID:           "sa1",
		Bib:              bib,
		TimingPoint:      models.TimingPointFinish,
		RegistrationTime: registration,
	}
}

func TestIngestRanksFinishEvents(t *testing.T) {
	db := newTestDB(t)
	seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	// Out of arrival order, with a tie on registration time between
	// bibs 3 and 1, broken by the lower bib.
	for _, ev := range []*models.TimeEvent{
		finishEvent("t3", 3, "09:03:10"),
		finishEvent("t1", 1, "09:03:10"),
		finishEvent("t2", 2, "09:02:55"),
	} {
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest(%s) error = %v", ev.ID, err)
		}
	}

	result, err := db.GetRaceResultByPair(ctx, "sa1", models.TimingPointFinish)
	if err != nil || result == nil {
		t.Fatalf("GetRaceResultByPair() = %v, %v", result, err)
	}
	want := []string{"t2", "t1", "t3"}
	if fmt.Sprint(result.RankingSequence) != fmt.Sprint(want) {
		t.Errorf("ranking = %v, want %v", result.RankingSequence, want)
	}
	if result.NoOfContestants != 3 {
		t.Errorf("no_of_contestants = %d, want 3", result.NoOfContestants)
	}

	first, err := db.GetTimeEvent(ctx, "t2")
	if err != nil {
		t.Fatalf("GetTimeEvent(t2) error = %v", err)
	}
	if first.Rank == nil || *first.Rank != 1 {
		t.Errorf("t2 rank = %v, want 1", first.Rank)
	}
	if first.Name != "Skier 2" {
		t.Errorf("t2 name = %q, want inherited from start entry", first.Name)
	}
}

func TestIngestDuplicateID(t *testing.T) {
	db := newTestDB(t)
	seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	if _, err := p.Ingest(ctx, "system", finishEvent("t1", 1, "09:03:00")); err != nil {
		t.Fatalf("first Ingest error = %v", err)
	}
	_, err := p.Ingest(ctx, "system", finishEvent("t1", 2, "09:03:05"))
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("duplicate Ingest error = %v, want conflict", err)
	}
}

func TestIngestInvalidTimingPointStoredAsError(t *testing.T) {
	db := newTestDB(t)
	seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	ev := finishEvent("bad-tp", 1, "09:03:00")
	ev.TimingPoint = "Lap3"
	stored, err := p.Ingest(ctx, "timer", ev)
	if !errors.Is(err, models.ErrUnprocessable) {
		t.Fatalf("Ingest error = %v, want unprocessable", err)
	}
	if stored == nil || stored.Status != models.TimeEventStatusError {
		t.Fatalf("stored = %+v, want status Error", stored)
	}
	if len(stored.Changelog) == 0 || stored.Changelog[0].UserID != "timer" {
		t.Errorf("changelog = %+v, want rejection entry by timer", stored.Changelog)
	}

	persisted, err := db.GetTimeEvent(ctx, "bad-tp")
	if err != nil {
		t.Fatalf("rejected event was not persisted: %v", err)
	}
	if persisted.Status != models.TimeEventStatusError {
		t.Errorf("persisted status = %q, want Error", persisted.Status)
	}
}

func TestHeatCompletionPropagatesQualifiers(t *testing.T) {
	db := newTestDB(t)
	_, fa, fb := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	for i, bib := range []int{3, 1, 4, 2} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}

	// Finish order 3, 1, 4, 2: top two to the A final, rest to the B.
	faEntries, err := db.ListStartEntriesByRace(ctx, fa.ID)
	if err != nil {
		t.Fatalf("list FA entries: %v", err)
	}
	if len(faEntries) != 2 || faEntries[0].Bib != 3 || faEntries[1].Bib != 1 {
		t.Fatalf("FA bibs = %v, want [3 1]", bibsOf(faEntries))
	}
	fbEntries, err := db.ListStartEntriesByRace(ctx, fb.ID)
	if err != nil {
		t.Fatalf("list FB entries: %v", err)
	}
	if len(fbEntries) != 2 || fbEntries[0].Bib != 4 || fbEntries[1].Bib != 2 {
		t.Fatalf("FB bibs = %v, want [4 2]", bibsOf(fbEntries))
	}

	for _, entry := range faEntries {
		if !entry.ScheduledStartTime.Equal(fa.StartTime) {
			t.Errorf("bib %d scheduled start = %v, want %v", entry.Bib, entry.ScheduledStartTime, fa.StartTime)
		}
		if len(entry.Changelog) == 0 || entry.Changelog[0].Comment != "PROPAGATED_FROM:sa1" {
			t.Errorf("bib %d changelog = %+v", entry.Bib, entry.Changelog)
		}
	}

	updatedFA, err := db.GetRace(ctx, fa.ID)
	if err != nil {
		t.Fatalf("get FA: %v", err)
	}
	if updatedFA.NoOfContestants != 2 || len(updatedFA.StartEntries) != 2 {
		t.Errorf("FA count = %d entries = %d, want 2/2",
			updatedFA.NoOfContestants, len(updatedFA.StartEntries))
	}

	winner, err := db.GetTimeEvent(ctx, "t3")
	if err != nil {
		t.Fatalf("get t3: %v", err)
	}
	if winner.NextRaceID != fa.ID || winner.NextRacePosition == nil || *winner.NextRacePosition != 1 {
		t.Errorf("t3 next race = %q position %v, want %s position 1",
			winner.NextRaceID, winner.NextRacePosition, fa.ID)
	}
}

func TestDNSCompletesHeatAndIsNotPropagated(t *testing.T) {
	db := newTestDB(t)
	_, fa, fb := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	// Bib 4 never starts.
	entry, err := db.GetStartEntryByRaceAndBib(ctx, "sa1", 4)
	if err != nil || entry == nil {
		t.Fatalf("get entry: %v, %v", entry, err)
	}
	entry.Status = models.StartEntryStatusDNS
	if err := db.UpdateStartEntry(ctx, entry); err != nil {
		t.Fatalf("update entry: %v", err)
	}

	// Three finishes complete the heat of four.
	for i, bib := range []int{1, 2, 3} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}

	faEntries, _ := db.ListStartEntriesByRace(ctx, fa.ID)
	fbEntries, _ := db.ListStartEntriesByRace(ctx, fb.ID)
	if fmt.Sprint(bibsOf(faEntries)) != fmt.Sprint([]int{1, 2}) {
		t.Errorf("FA bibs = %v, want [1 2]", bibsOf(faEntries))
	}
	if fmt.Sprint(bibsOf(fbEntries)) != fmt.Sprint([]int{3}) {
		t.Errorf("FB bibs = %v, want [3]", bibsOf(fbEntries))
	}
}

func TestReevaluateHeatAfterStatusChange(t *testing.T) {
	db := newTestDB(t)
	_, fa, _ := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	// Three finishes leave the heat incomplete.
	for i, bib := range []int{1, 2, 3} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}
	if entries, _ := db.ListStartEntriesByRace(ctx, fa.ID); len(entries) != 0 {
		t.Fatalf("FA already has %d entries before completion", len(entries))
	}

	// The race office marks bib 4 DNF; the heat is now complete.
	entry, _ := db.GetStartEntryByRaceAndBib(ctx, "sa1", 4)
	entry.Status = models.StartEntryStatusDNF
	if err := db.UpdateStartEntry(ctx, entry); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if err := p.ReevaluateHeat(ctx, "race-office", "sa1"); err != nil {
		t.Fatalf("ReevaluateHeat() error = %v", err)
	}

	entries, _ := db.ListStartEntriesByRace(ctx, fa.ID)
	if fmt.Sprint(bibsOf(entries)) != fmt.Sprint([]int{1, 2}) {
		t.Errorf("FA bibs = %v, want [1 2]", bibsOf(entries))
	}
}

func TestReevaluateHeatWithdrawsSupersededQualifier(t *testing.T) {
	db := newTestDB(t)
	_, fa, fb := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	for i, bib := range []int{1, 2, 3, 4} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}
	if entries, _ := db.ListStartEntriesByRace(ctx, fa.ID); fmt.Sprint(bibsOf(entries)) != fmt.Sprint([]int{1, 2}) {
		t.Fatalf("FA bibs = %v, want [1 2]", bibsOf(entries))
	}

	// The jury disqualifies the winner after the A final was filled.
	entry, err := db.GetStartEntryByRaceAndBib(ctx, "sa1", 1)
	if err != nil || entry == nil {
		t.Fatalf("get entry: %v, %v", entry, err)
	}
	entry.Status = models.StartEntryStatusDSQ
	if err := db.UpdateStartEntry(ctx, entry); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if err := p.ReevaluateHeat(ctx, "race-office", "sa1"); err != nil {
		t.Fatalf("ReevaluateHeat() error = %v", err)
	}

	// Bib 3 moves up into the A final and bib 1 drops out entirely, in
	// the race documents and in the start entry rows alike.
	faEntries, _ := db.ListStartEntriesByRace(ctx, fa.ID)
	if fmt.Sprint(bibsOf(faEntries)) != fmt.Sprint([]int{2, 3}) {
		t.Errorf("FA bibs = %v, want [2 3]", bibsOf(faEntries))
	}
	fbEntries, _ := db.ListStartEntriesByRace(ctx, fb.ID)
	if fmt.Sprint(bibsOf(fbEntries)) != fmt.Sprint([]int{4}) {
		t.Errorf("FB bibs = %v, want [4]", bibsOf(fbEntries))
	}

	updatedFA, err := db.GetRace(ctx, fa.ID)
	if err != nil {
		t.Fatalf("get FA: %v", err)
	}
	if len(updatedFA.StartEntries) != len(faEntries) {
		t.Errorf("FA document lists %d entries, %d rows exist",
			len(updatedFA.StartEntries), len(faEntries))
	}
}

func TestReevaluateKeepsEntryWithRecordedEvents(t *testing.T) {
	db := newTestDB(t)
	_, fa, _ := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	for i, bib := range []int{1, 2, 3, 4} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}

	// Bib 1 already started the A final before being disqualified in
	// the semifinal. The stale entry has observations hanging off it,
	// so the re-propagation leaves it for the race office to resolve.
	next := &models.TimeEvent{
		ID: "fa-start", EventID: "event-1", RaceID: fa.ID, Bib: 1,
		TimingPoint: models.TimingPointStart, RegistrationTime: "09:10:00",
	}
	if _, err := p.Ingest(ctx, "system", next); err != nil {
		t.Fatalf("Ingest FA start error = %v", err)
	}

	entry, _ := db.GetStartEntryByRaceAndBib(ctx, "sa1", 1)
	entry.Status = models.StartEntryStatusDSQ
	if err := db.UpdateStartEntry(ctx, entry); err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if err := p.ReevaluateHeat(ctx, "race-office", "sa1"); err != nil {
		t.Fatalf("ReevaluateHeat() error = %v", err)
	}

	if stale, _ := db.GetStartEntryByRaceAndBib(ctx, fa.ID, 1); stale == nil {
		t.Error("entry with recorded time events was withdrawn")
	}
}

func TestOverflowRejectedAndStoredAsError(t *testing.T) {
	db := newTestDB(t)
	_, fa, _ := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	// Shrink the A final so the semifinal's two qualifiers overflow it.
	fa.MaxNoOfContestants = 1
	if err := db.UpdateRace(ctx, &fa); err != nil {
		t.Fatalf("update race: %v", err)
	}

	var lastErr error
	for i, bib := range []int{1, 2, 3, 4} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		_, lastErr = p.Ingest(ctx, "system", ev)
	}
	if !errors.Is(lastErr, models.ErrUnprocessable) {
		t.Fatalf("completing Ingest error = %v, want unprocessable", lastErr)
	}

	// The offending event is stored with status Error, and no entry
	// reached the final.
	stored, err := db.GetTimeEvent(ctx, "t4")
	if err != nil {
		t.Fatalf("get t4: %v", err)
	}
	if stored.Status != models.TimeEventStatusError {
		t.Errorf("t4 status = %q, want Error", stored.Status)
	}
	if entries, _ := db.ListStartEntriesByRace(ctx, fa.ID); len(entries) != 0 {
		t.Errorf("FA has %d entries after rollback, want 0", len(entries))
	}
}

func TestDeleteRerankAndWithdraw(t *testing.T) {
	db := newTestDB(t)
	_, fa, fb := seedBracket(t, db)
	p := NewProcessor(db, nil)
	ctx := context.Background()

	for i, bib := range []int{1, 2, 3, 4} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}
	if entries, _ := db.ListStartEntriesByRace(ctx, fa.ID); len(entries) != 2 {
		t.Fatalf("FA has %d entries, want 2", len(entries))
	}

	// Deleting the winner's finish removes it from the ranking and
	// withdraws the derived A-final entry.
	if err := p.Delete(ctx, "race-office", "t1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	result, err := db.GetRaceResultByPair(ctx, "sa1", models.TimingPointFinish)
	if err != nil || result == nil {
		t.Fatalf("result after delete: %v, %v", result, err)
	}
	want := []string{"t2", "t3", "t4"}
	if fmt.Sprint(result.RankingSequence) != fmt.Sprint(want) {
		t.Errorf("ranking = %v, want %v", result.RankingSequence, want)
	}

	faEntries, _ := db.ListStartEntriesByRace(ctx, fa.ID)
	if fmt.Sprint(bibsOf(faEntries)) != fmt.Sprint([]int{2}) {
		t.Errorf("FA bibs = %v, want [2]", bibsOf(faEntries))
	}
	if faEntries[0].StartingPosition != 1 {
		t.Errorf("remaining entry position = %d, want 1", faEntries[0].StartingPosition)
	}
	_ = fb
}

func TestDeleteBlockedByDependentEvents(t *testing.T) {
	db := newTestDB(t)
	fa := func() models.Race { _, fa, _ := seedBracket(t, db); return fa }()
	p := NewProcessor(db, nil)
	ctx := context.Background()

	for i, bib := range []int{1, 2, 3, 4} {
		ev := finishEvent(fmt.Sprintf("t%d", bib), bib, fmt.Sprintf("09:03:%02d", i*10))
		if _, err := p.Ingest(ctx, "system", ev); err != nil {
			t.Fatalf("Ingest bib %d error = %v", bib, err)
		}
	}

	// Bib 1 already started the A final.
	next := &models.TimeEvent{
		ID: "fa-start", EventID: "event-1", RaceID: fa.ID, Bib: 1,
		TimingPoint: models.TimingPointStart, RegistrationTime: "09:10:00",
	}
	if _, err := p.Ingest(ctx, "system", next); err != nil {
		t.Fatalf("Ingest FA start error = %v", err)
	}

	err := p.Delete(ctx, "race-office", "t1")
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("Delete() error = %v, want conflict", err)
	}
}

func bibsOf(entries []models.StartEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Bib)
	}
	return out
}
