// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/validation"
)

// CreateStartEntry adds one contestant to a race, enforcing bib
// uniqueness and the race's capacity. A zero starting position places
// the entry at the back of the field.
func (s *Service) CreateStartEntry(ctx context.Context, subject, raceID string, entry *models.StartEntry) (*models.StartEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.RaceID = raceID

	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		race, err := tx.GetRace(ctx, raceID)
		if err != nil {
			return err
		}
		if race.MaxNoOfContestants > 0 && len(race.StartEntries) >= race.MaxNoOfContestants {
			return models.Conflictf("race %s is full (max %d)", race.Name(), race.MaxNoOfContestants)
		}
		existing, err := tx.GetStartEntryByRaceAndBib(ctx, raceID, entry.Bib)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.Conflictf("bib %d already starts in race %s", entry.Bib, race.Name())
		}

		if entry.StartingPosition == 0 {
			entry.StartingPosition = len(race.StartEntries) + 1
		}
		if entry.ScheduledStartTime.IsZero() {
			entry.ScheduledStartTime = race.StartTime
		}
		if err := validation.ValidateStruct(entry); err != nil {
			return err
		}
		entry.Changelog = append(entry.Changelog, models.Changelog{
			Timestamp: time.Now().UTC(),
			UserID:    subject,
			Comment:   "CREATED",
		})
		if err := tx.CreateStartEntry(ctx, entry); err != nil {
			return err
		}

		race.StartEntries = append(race.StartEntries, entry.ID)
		race.NoOfContestants = len(race.StartEntries)
		return tx.UpdateRace(ctx, race)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListStartEntriesByRace returns a race's entries in starting-position
// order.
func (s *Service) ListStartEntriesByRace(ctx context.Context, raceID string) ([]models.StartEntry, error) {
	if _, err := s.db.GetRace(ctx, raceID); err != nil {
		return nil, err
	}
	return s.db.ListStartEntriesByRace(ctx, raceID)
}

// GetStartEntry returns one start entry, checking it belongs to the
// race in the request path.
func (s *Service) GetStartEntry(ctx context.Context, raceID, id string) (*models.StartEntry, error) {
	entry, err := s.db.GetStartEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.RaceID != raceID {
		return nil, models.NotFoundf("start entry %s not found in race %s", id, raceID)
	}
	return entry, nil
}

// UpdateStartEntry replaces a start entry. Setting a status that takes
// the contestant out of the race (DNS, DNF, DSQ) can complete a sprint
// heat, so the heat is re-evaluated afterwards.
func (s *Service) UpdateStartEntry(ctx context.Context, subject, raceID string, entry *models.StartEntry) error {
	if err := validation.ValidateStruct(entry); err != nil {
		return err
	}

	var statusChanged bool
	err := s.db.InTx(ctx, func(tx *database.Tx) error {
		current, err := tx.GetStartEntry(ctx, entry.ID)
		if err != nil {
			return err
		}
		if current.RaceID != raceID {
			return models.NotFoundf("start entry %s not found in race %s", entry.ID, raceID)
		}
		if entry.Bib != current.Bib {
			return models.Conflictf("bib of start entry %s is immutable", entry.ID)
		}

		if entry.Status != current.Status {
			statusChanged = true
			entry.Changelog = append(current.Changelog, models.Changelog{
				Timestamp: time.Now().UTC(),
				UserID:    subject,
				Comment:   "STATUS:" + entry.Status,
			})
		}
		return tx.UpdateStartEntry(ctx, entry)
	})
	if err != nil {
		return err
	}

	if statusChanged && models.StartEntryStatusExcludes(entry.Status) {
		return s.processor.ReevaluateHeat(ctx, subject, raceID)
	}
	return nil
}

// DeleteStartEntry removes one entry, closes the position gap it
// leaves, and updates the race's bookkeeping.
func (s *Service) DeleteStartEntry(ctx context.Context, raceID, id string) error {
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		entry, err := tx.GetStartEntry(ctx, id)
		if err != nil {
			return err
		}
		if entry.RaceID != raceID {
			return models.NotFoundf("start entry %s not found in race %s", id, raceID)
		}

		events, err := tx.ListTimeEvents(ctx, database.TimeEventFilter{RaceID: raceID, Bib: entry.Bib})
		if err != nil {
			return err
		}
		if len(events) > 0 {
			return models.Conflictf("bib %d has %d time events in this race", entry.Bib, len(events))
		}

		if err := tx.DeleteStartEntry(ctx, id); err != nil {
			return err
		}

		race, err := tx.GetRace(ctx, raceID)
		if err != nil {
			return err
		}
		remaining, err := tx.ListStartEntriesByRace(ctx, raceID)
		if err != nil {
			return err
		}
		race.StartEntries = make([]string, 0, len(remaining))
		for i := range remaining {
			if remaining[i].StartingPosition != i+1 {
				remaining[i].StartingPosition = i + 1
				if err := tx.UpdateStartEntry(ctx, &remaining[i]); err != nil {
					return err
				}
			}
			race.StartEntries = append(race.StartEntries, remaining[i].ID)
		}
		race.NoOfContestants = len(remaining)
		return tx.UpdateRace(ctx, race)
	})
}
