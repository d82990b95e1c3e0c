// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/commands"
	"github.com/tomtom215/heatsheet/internal/config"
	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/timing"
)

// allowAll authorizes every bearer token as a fixed subject.
type allowAll struct{}

func (allowAll) Authorize(_ context.Context, _, _ string, _ []string) (string, error) {
	return "tester", nil
}

// stubCatalog serves a minimal interval-start event.
type stubCatalog struct{}

func (stubCatalog) GetEvent(_ context.Context, eventID string) (*models.Event, error) {
	if eventID != "event-1" {
		return nil, models.NotFoundf("event %s not found", eventID)
	}
	return &models.Event{
		ID:                "event-1",
		Name:              "Test Event",
		DateOfEvent:       "2026-03-01",
		TimeOfEvent:       "09:00:00",
		CompetitionFormat: "Interval Start",
	}, nil
}

func (stubCatalog) GetRaceclasses(_ context.Context, _ string) ([]models.Raceclass, error) {
	return []models.Raceclass{
		{Name: "G12", Ageclasses: []string{"G 12 years"}, Group: 1, Order: 1, Ranking: true, NoOfContestants: 2},
	}, nil
}

func (stubCatalog) GetContestants(_ context.Context, _ string) ([]models.Contestant, error) {
	return []models.Contestant{
		{Bib: 1, FirstName: "First", LastName: "Skier", Ageclass: "G 12 years"},
		{Bib: 2, FirstName: "Second", LastName: "Skier", Ageclass: "G 12 years"},
	}, nil
}

func (stubCatalog) GetEventFormat(_ context.Context, eventID string) (*models.CompetitionFormat, error) {
	return nil, models.NotFoundf("event %s has no format configured", eventID)
}

func (stubCatalog) GetByName(_ context.Context, name string) (*models.CompetitionFormat, error) {
	if name != "Interval Start" {
		return nil, models.NotFoundf("competition format %s not found", name)
	}
	return &models.CompetitionFormat{
		Name:      "Interval Start",
		Datatype:  models.RaceDatatypeIntervalStart,
		Intervals: "00:00:30",
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
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

	catalog := stubCatalog{}
	service := commands.NewService(db, catalog, catalog, timing.NewProcessor(db, nil))
	cfg := &config.Config{
		Server: config.ServerConfig{MetricsEnabled: true},
		Security: config.SecurityConfig{
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
	}
	router := New(cfg, db, service, allowAll{}, nil, nil)

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ping status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status = %d, want 200", resp.StatusCode)
	}
}

func TestMutationRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/raceplans/generate-raceplan-for-event", "application/json",
		bytes.NewBufferString(`{"event_id": "event-1"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["detail"] == "" {
		t.Errorf("401 body = %v, want detail message", body)
	}
}

func TestGenerateAndFetchFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/raceplans/generate-raceplan-for-event",
		generateCommand{EventID: "event-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate raceplan status = %d, want 201", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc == "" {
		t.Error("201 response missing Location header")
	}
	var plan models.Raceplan
	decode(t, resp, &plan)
	if plan.NoOfContestants != 2 || len(plan.Races) != 1 {
		t.Fatalf("plan = %+v, want 2 contestants in 1 race", plan)
	}

	resp = do(t, http.MethodPost, srv.URL+"/startlists/generate-startlist-for-event",
		generateCommand{EventID: "event-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate startlist status = %d, want 201", resp.StatusCode)
	}
	var list models.Startlist
	decode(t, resp, &list)

	resp = do(t, http.MethodGet, srv.URL+"/startlists/"+list.ID, nil)
	var detail models.StartlistDetail
	decode(t, resp, &detail)
	if len(detail.StartEntries) != 2 {
		t.Fatalf("startlist has %d entries, want 2", len(detail.StartEntries))
	}

	// Second generation conflicts.
	resp = do(t, http.MethodPost, srv.URL+"/raceplans/generate-raceplan-for-event",
		generateCommand{EventID: "event-1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second generation status = %d, want 409", resp.StatusCode)
	}

	// Validation passes on a freshly generated plan.
	resp = do(t, http.MethodPost, srv.URL+"/raceplans/"+plan.ID+"/validate", nil)
	var diag struct {
		NoOfErrors int      `json:"no_of_errors"`
		Results    []string `json:"results"`
	}
	decode(t, resp, &diag)
	if diag.NoOfErrors != 0 {
		t.Errorf("diagnostics = %+v, want no errors", diag)
	}
}

func TestTimeEventIngestOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	do(t, http.MethodPost, srv.URL+"/raceplans/generate-raceplan-for-event",
		generateCommand{EventID: "event-1"}).Body.Close()
	do(t, http.MethodPost, srv.URL+"/startlists/generate-startlist-for-event",
		generateCommand{EventID: "event-1"}).Body.Close()

	resp := do(t, http.MethodGet, srv.URL+"/races?eventId=event-1", nil)
	var races []models.Race
	decode(t, resp, &races)
	if len(races) != 1 {
		t.Fatalf("races = %d, want 1", len(races))
	}

	resp = do(t, http.MethodPost, srv.URL+"/time-events", models.TimeEvent{
		Bib:              1,
		EventID:          "event-1",
		RaceID:           races[0].ID,
		TimingPoint:      models.TimingPointFinish,
		RegistrationTime: "09:02:11",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest status = %d, want 201", resp.StatusCode)
	}
	var event models.TimeEvent
	decode(t, resp, &event)
	if event.Rank == nil || *event.Rank != 1 || event.Status != models.TimeEventStatusOK {
		t.Errorf("event = %+v, want rank 1 status OK", event)
	}
	if event.Changelog == nil && event.Name == "" {
		t.Errorf("event not enriched from start entry: %+v", event)
	}

	// Unknown bib gets a 422 with the rejection detail and is stored
	// with status Error.
	resp = do(t, http.MethodPost, srv.URL+"/time-events", models.TimeEvent{
		Bib:              99,
		EventID:          "event-1",
		RaceID:           races[0].ID,
		TimingPoint:      models.TimingPointFinish,
		RegistrationTime: "09:02:30",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unknown bib status = %d, want 422", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["detail"] == "" {
		t.Error("422 body missing detail")
	}

	resp = do(t, http.MethodGet, srv.URL+"/time-events?raceId="+races[0].ID, nil)
	var events []models.TimeEvent
	decode(t, resp, &events)
	if len(events) != 2 {
		t.Fatalf("time events = %d, want 2", len(events))
	}
	if events[1].Status != models.TimeEventStatusError {
		t.Errorf("rejected event status = %q, want Error", events[1].Status)
	}

	// The accepted event is visible in the race's hydrated result.
	resp = do(t, http.MethodGet, srv.URL+"/races/"+races[0].ID+"/race-results?timingPoint=Finish", nil)
	var results []models.RaceResultDetail
	decode(t, resp, &results)
	if len(results) != 1 || len(results[0].RankingSequence) != 1 {
		t.Fatalf("results = %+v, want one result with one ranked event", results)
	}
	if results[0].RankingSequence[0].Bib != 1 {
		t.Errorf("ranked bib = %d, want 1", results[0].RankingSequence[0].Bib)
	}
}

func TestNotFoundDetailBody(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/raceplans/no-such-plan", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["detail"] == "" {
		t.Errorf("404 body = %v, want detail message", body)
	}
}

func TestUpdateRaceOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	do(t, http.MethodPost, srv.URL+"/raceplans/generate-raceplan-for-event",
		generateCommand{EventID: "event-1"}).Body.Close()

	resp := do(t, http.MethodGet, srv.URL+"/races?eventId=event-1", nil)
	var races []models.Race
	decode(t, resp, &races)

	race := races[0]
	race.StartTime = race.StartTime.Add(30 * time.Minute)
	resp = do(t, http.MethodPut, srv.URL+"/races/"+race.ID, race)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("PUT race status = %d, want 204", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, srv.URL+"/races/"+race.ID, nil)
	var detail models.RaceDetail
	decode(t, resp, &detail)
	if !detail.StartTime.Equal(race.StartTime) {
		t.Errorf("race start = %v, want %v", detail.StartTime, race.StartTime)
	}
}
