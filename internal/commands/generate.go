// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package commands

import (
	"context"
	"errors"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/metrics"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/raceplan"
	"github.com/tomtom215/heatsheet/internal/startlist"
)

// GenerateRaceplanForEvent fetches the event, its format, and its
// raceclasses, generates the full race schedule, and persists plan and
// races atomically. A second call for the same event fails with a
// conflict.
func (s *Service) GenerateRaceplanForEvent(ctx context.Context, eventID string) (*models.Raceplan, error) {
	s.eventLocks.Lock(eventID)
	defer s.eventLocks.Unlock(eventID)

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return recordGeneration[models.Raceplan]("raceplan", nil, err)
	}
	format, err := s.resolveFormat(ctx, event)
	if err != nil {
		return recordGeneration[models.Raceplan]("raceplan", nil, err)
	}
	raceclasses, err := s.events.GetRaceclasses(ctx, eventID)
	if err != nil {
		return recordGeneration[models.Raceplan]("raceplan", nil, err)
	}

	if _, err := s.db.GetRaceplanByEvent(ctx, eventID); err == nil {
		return recordGeneration[models.Raceplan]("raceplan", nil,
			models.Conflictf("event %s already has a raceplan", eventID))
	} else if !errors.Is(err, models.ErrNotFound) {
		return recordGeneration[models.Raceplan]("raceplan", nil, err)
	}

	out, err := raceplan.Generate(raceplan.Input{
		Event:       *event,
		Format:      *format,
		Raceclasses: raceclasses,
	})
	if err != nil {
		return recordGeneration[models.Raceplan]("raceplan", nil, err)
	}

	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := tx.CreateRaceplan(ctx, &out.Plan); err != nil {
			return err
		}
		for i := range out.Races {
			if err := tx.CreateRace(ctx, &out.Races[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return recordGeneration[models.Raceplan]("raceplan", nil, err)
	}

	logging.Info().
		Str("event_id", eventID).
		Str("raceplan_id", out.Plan.ID).
		Int("races", len(out.Races)).
		Str("format", format.Name).
		Msg("raceplan generated")
	return recordGeneration("raceplan", &out.Plan, nil)
}

// GenerateStartlistForEvent seeds the event's contestants into the
// stored raceplan and persists startlist, entries, and updated races
// atomically. Requires a raceplan, bibs on every contestant, and no
// existing startlist.
func (s *Service) GenerateStartlistForEvent(ctx context.Context, eventID string) (*models.Startlist, error) {
	s.eventLocks.Lock(eventID)
	defer s.eventLocks.Unlock(eventID)

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}
	format, err := s.resolveFormat(ctx, event)
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}
	raceclasses, err := s.events.GetRaceclasses(ctx, eventID)
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}
	contestants, err := s.events.GetContestants(ctx, eventID)
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}
	for _, c := range contestants {
		if c.Bib <= 0 {
			return recordGeneration[models.Startlist]("startlist", nil,
				models.Unprocessablef("contestant %s %s has no bib assigned", c.FirstName, c.LastName))
		}
	}

	plan, err := s.db.GetRaceplanByEvent(ctx, eventID)
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}
	races, err := s.db.ListRacesByRaceplan(ctx, plan.ID)
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}

	if _, err := s.db.GetStartlistByEvent(ctx, eventID); err == nil {
		return recordGeneration[models.Startlist]("startlist", nil,
			models.Conflictf("event %s already has a startlist", eventID))
	} else if !errors.Is(err, models.ErrNotFound) {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}

	out, err := startlist.Generate(startlist.Input{
		Event:       *event,
		Format:      *format,
		Raceclasses: raceclasses,
		Contestants: contestants,
		Races:       races,
	})
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}

	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		if err := tx.CreateStartlist(ctx, &out.Startlist); err != nil {
			return err
		}
		for i := range out.StartEntries {
			if err := tx.CreateStartEntry(ctx, &out.StartEntries[i]); err != nil {
				return err
			}
		}
		for i := range out.Races {
			if err := tx.UpdateRace(ctx, &out.Races[i]); err != nil {
				return err
			}
		}
		if plan.NoOfContestants != out.Startlist.NoOfContestants {
			plan.NoOfContestants = out.Startlist.NoOfContestants
			if err := tx.UpdateRaceplan(ctx, plan); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return recordGeneration[models.Startlist]("startlist", nil, err)
	}

	logging.Info().
		Str("event_id", eventID).
		Str("startlist_id", out.Startlist.ID).
		Int("entries", len(out.StartEntries)).
		Msg("startlist generated")
	return recordGeneration("startlist", &out.Startlist, nil)
}

// recordGeneration counts the command outcome and passes the result
// through.
func recordGeneration[T any](command string, result *T, err error) (*T, error) {
	outcome := "ok"
	switch {
	case errors.Is(err, models.ErrConflict):
		outcome = "conflict"
	case err != nil:
		outcome = "error"
	}
	metrics.GenerationCommands.WithLabelValues(command, outcome).Inc()
	return result, err
}
