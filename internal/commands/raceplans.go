// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package commands

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/raceplan"
	"github.com/tomtom215/heatsheet/internal/validation"
)

// CreateRaceplan stores a raceplan document directly, for imports and
// manual administration. Generated plans go through
// GenerateRaceplanForEvent instead.
func (s *Service) CreateRaceplan(ctx context.Context, plan *models.Raceplan) (*models.Raceplan, error) {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	if plan.Races == nil {
		plan.Races = []string{}
	}
	if err := validation.ValidateStruct(plan); err != nil {
		return nil, err
	}
	if err := s.db.CreateRaceplan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListRaceplans returns all raceplans, optionally narrowed to one
// event.
func (s *Service) ListRaceplans(ctx context.Context, eventID string) ([]models.Raceplan, error) {
	return s.db.ListRaceplans(ctx, eventID)
}

// GetRaceplan returns one raceplan with its races hydrated in schedule
// order.
func (s *Service) GetRaceplan(ctx context.Context, id string) (*models.RaceplanDetail, error) {
	plan, err := s.db.GetRaceplan(ctx, id)
	if err != nil {
		return nil, err
	}
	races, err := s.db.ListRacesByRaceplan(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(races, func(i, j int) bool { return races[i].Order < races[j].Order })
	return &models.RaceplanDetail{Raceplan: *plan, Races: races}, nil
}

// UpdateRaceplan replaces a raceplan document.
func (s *Service) UpdateRaceplan(ctx context.Context, plan *models.Raceplan) error {
	if err := validation.ValidateStruct(plan); err != nil {
		return err
	}
	return s.db.UpdateRaceplan(ctx, plan)
}

// DeleteRaceplan removes a raceplan and everything hanging off it:
// its races, their start entries and race results, their time events,
// and the event's startlist.
func (s *Service) DeleteRaceplan(ctx context.Context, id string) error {
	plan, err := s.db.GetRaceplan(ctx, id)
	if err != nil {
		return err
	}

	s.eventLocks.Lock(plan.EventID)
	defer s.eventLocks.Unlock(plan.EventID)

	err = s.db.InTx(ctx, func(tx *database.Tx) error {
		races, err := tx.ListRacesByRaceplan(ctx, id)
		if err != nil {
			return err
		}
		for _, race := range races {
			if err := tx.DeleteStartEntriesByRace(ctx, race.ID); err != nil {
				return err
			}
			if err := tx.DeleteRaceResultsByRace(ctx, race.ID); err != nil {
				return err
			}
			if err := tx.DeleteRace(ctx, race.ID); err != nil {
				return err
			}
		}

		list, err := tx.GetStartlistByEvent(ctx, plan.EventID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if list != nil {
			if err := tx.DeleteStartlist(ctx, list.ID); err != nil {
				return err
			}
		}
		return tx.DeleteRaceplan(ctx, id)
	})
	if err != nil {
		return err
	}

	logging.Info().Str("raceplan_id", id).Str("event_id", plan.EventID).Msg("raceplan deleted")
	return nil
}

// ValidateRaceplan runs the plan diagnostics against the event's
// current raceclasses.
func (s *Service) ValidateRaceplan(ctx context.Context, id string) (*raceplan.Diagnostics, error) {
	plan, err := s.db.GetRaceplan(ctx, id)
	if err != nil {
		return nil, err
	}
	races, err := s.db.ListRacesByRaceplan(ctx, id)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(races, func(i, j int) bool { return races[i].Order < races[j].Order })

	raceclasses, err := s.events.GetRaceclasses(ctx, plan.EventID)
	if err != nil {
		return nil, err
	}
	diag := raceplan.Validate(*plan, races, raceclasses)
	return &diag, nil
}
