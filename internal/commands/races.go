// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/validation"
)

// CreateRace stores a race and links it into its raceplan.
func (s *Service) CreateRace(ctx context.Context, race *models.Race) (*models.Race, error) {
	if race.ID == "" {
		race.ID = uuid.New().String()
	}
	if race.StartEntries == nil {
		race.StartEntries = []string{}
	}
	if race.Results == nil {
		race.Results = map[string]string{}
	}
	if err := validation.ValidateStruct(race); err != nil {
		return nil, err
	}

	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		plan, err := tx.GetRaceplan(ctx, race.RaceplanID)
		if err != nil {
			return err
		}
		if err := tx.CreateRace(ctx, race); err != nil {
			return err
		}
		plan.Races = append(plan.Races, race.ID)
		return tx.UpdateRaceplan(ctx, plan)
	})
	if err != nil {
		return nil, err
	}
	return race, nil
}

// ListRaces returns races, optionally narrowed to one event, in
// schedule order.
func (s *Service) ListRaces(ctx context.Context, eventID string) ([]models.Race, error) {
	return s.db.ListRaces(ctx, eventID)
}

// GetRace returns one race with start entries and results hydrated.
func (s *Service) GetRace(ctx context.Context, id string) (*models.RaceDetail, error) {
	race, err := s.db.GetRace(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.db.ListStartEntriesByRace(ctx, id)
	if err != nil {
		return nil, err
	}

	results := map[string]models.RaceResultDetail{}
	for timingPoint, resultID := range race.Results {
		result, err := s.db.GetRaceResult(ctx, resultID)
		if err != nil {
			return nil, err
		}
		detail, err := s.hydrateResult(ctx, result)
		if err != nil {
			return nil, err
		}
		results[timingPoint] = *detail
	}

	return &models.RaceDetail{Race: *race, StartEntries: entries, Results: results}, nil
}

// UpdateRace replaces a race document. Moving the race's start time
// shifts every start entry's scheduled start by the same amount, so
// interval gaps between entries survive a delay.
func (s *Service) UpdateRace(ctx context.Context, race *models.Race) error {
	if err := validation.ValidateStruct(race); err != nil {
		return err
	}

	return s.db.InTx(ctx, func(tx *database.Tx) error {
		current, err := tx.GetRace(ctx, race.ID)
		if err != nil {
			return err
		}

		if delta := race.StartTime.Sub(current.StartTime); delta != 0 {
			entries, err := tx.ListStartEntriesByRace(ctx, race.ID)
			if err != nil {
				return err
			}
			for i := range entries {
				entries[i].ScheduledStartTime = entries[i].ScheduledStartTime.Add(delta)
				if err := tx.UpdateStartEntry(ctx, &entries[i]); err != nil {
					return err
				}
			}
		}
		return tx.UpdateRace(ctx, race)
	})
}

// DeleteRace removes a race, its start entries and results, and its
// reference in the raceplan.
func (s *Service) DeleteRace(ctx context.Context, id string) error {
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		race, err := tx.GetRace(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteStartEntriesByRace(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteRaceResultsByRace(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteRace(ctx, id); err != nil {
			return err
		}

		plan, err := tx.GetRaceplan(ctx, race.RaceplanID)
		if err != nil {
			return err
		}
		kept := plan.Races[:0]
		for _, raceID := range plan.Races {
			if raceID != id {
				kept = append(kept, raceID)
			}
		}
		plan.Races = kept
		return tx.UpdateRaceplan(ctx, plan)
	})
}
