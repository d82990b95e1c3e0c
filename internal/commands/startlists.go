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

// CreateStartlist stores a startlist document directly. Generated
// startlists go through GenerateStartlistForEvent instead.
func (s *Service) CreateStartlist(ctx context.Context, list *models.Startlist) (*models.Startlist, error) {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	if list.StartEntries == nil {
		list.StartEntries = []string{}
	}
	if err := validation.ValidateStruct(list); err != nil {
		return nil, err
	}
	if err := s.db.CreateStartlist(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListStartlists returns startlists, optionally narrowed to one event.
func (s *Service) ListStartlists(ctx context.Context, eventID string) ([]models.Startlist, error) {
	return s.db.ListStartlists(ctx, eventID)
}

// GetStartlist returns one startlist with its entries hydrated.
func (s *Service) GetStartlist(ctx context.Context, id string) (*models.StartlistDetail, error) {
	list, err := s.db.GetStartlist(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.db.ListStartEntriesByStartlist(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.StartlistDetail{Startlist: *list, StartEntries: entries}, nil
}

// UpdateStartlist replaces a startlist document.
func (s *Service) UpdateStartlist(ctx context.Context, list *models.Startlist) error {
	if err := validation.ValidateStruct(list); err != nil {
		return err
	}
	return s.db.UpdateStartlist(ctx, list)
}

// DeleteStartlist removes a startlist and its entries, and detaches
// the entries from their races.
func (s *Service) DeleteStartlist(ctx context.Context, id string) error {
	list, err := s.db.GetStartlist(ctx, id)
	if err != nil {
		return err
	}

	s.eventLocks.Lock(list.EventID)
	defer s.eventLocks.Unlock(list.EventID)

	return s.db.InTx(ctx, func(tx *database.Tx) error {
		entries, err := tx.ListStartEntriesByStartlist(ctx, id)
		if err != nil {
			return err
		}
		affected := map[string]bool{}
		for _, entry := range entries {
			affected[entry.RaceID] = true
			if err := tx.DeleteStartEntry(ctx, entry.ID); err != nil {
				return err
			}
		}
		for raceID := range affected {
			race, err := tx.GetRace(ctx, raceID)
			if err != nil {
				return err
			}
			remaining, err := tx.ListStartEntriesByRace(ctx, raceID)
			if err != nil {
				return err
			}
			race.StartEntries = make([]string, 0, len(remaining))
			for _, entry := range remaining {
				race.StartEntries = append(race.StartEntries, entry.ID)
			}
			if race.Datatype != models.RaceDatatypeIndividualSprint {
				race.NoOfContestants = len(remaining)
			}
			if err := tx.UpdateRace(ctx, race); err != nil {
				return err
			}
		}
		return tx.DeleteStartlist(ctx, id)
	})
}
