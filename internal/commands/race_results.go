// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package commands

import (
	"context"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/validation"
)

// ListRaceResultsByRace returns a race's results, optionally narrowed
// to one timing point.
func (s *Service) ListRaceResultsByRace(ctx context.Context, raceID, timingPoint string) ([]models.RaceResult, error) {
	if _, err := s.db.GetRace(ctx, raceID); err != nil {
		return nil, err
	}
	return s.db.ListRaceResultsByRace(ctx, raceID, timingPoint)
}

// GetRaceResult returns one result with its ranking sequence hydrated
// to full time events, checking it belongs to the race in the request
// path.
func (s *Service) GetRaceResult(ctx context.Context, raceID, id string) (*models.RaceResultDetail, error) {
	result, err := s.db.GetRaceResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RaceID != raceID {
		return nil, models.NotFoundf("race result %s not found in race %s", id, raceID)
	}
	return s.hydrateResult(ctx, result)
}

// ListRaceResultDetailsByRace is ListRaceResultsByRace with each
// result's ranking sequence hydrated.
func (s *Service) ListRaceResultDetailsByRace(ctx context.Context, raceID, timingPoint string) ([]models.RaceResultDetail, error) {
	results, err := s.ListRaceResultsByRace(ctx, raceID, timingPoint)
	if err != nil {
		return nil, err
	}
	details := make([]models.RaceResultDetail, 0, len(results))
	for i := range results {
		detail, err := s.hydrateResult(ctx, &results[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

func (s *Service) hydrateResult(ctx context.Context, result *models.RaceResult) (*models.RaceResultDetail, error) {
	detail := &models.RaceResultDetail{
		RaceResult:      *result,
		RankingSequence: make([]models.TimeEvent, 0, len(result.RankingSequence)),
	}
	for _, eventID := range result.RankingSequence {
		event, err := s.db.GetTimeEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		detail.RankingSequence = append(detail.RankingSequence, *event)
	}
	return detail, nil
}

// UpdateRaceResult replaces a result document, primarily for the race
// office promoting a result to official.
func (s *Service) UpdateRaceResult(ctx context.Context, raceID string, result *models.RaceResult) error {
	if err := validation.ValidateStruct(result); err != nil {
		return err
	}
	current, err := s.db.GetRaceResult(ctx, result.ID)
	if err != nil {
		return err
	}
	if current.RaceID != raceID {
		return models.NotFoundf("race result %s not found in race %s", result.ID, raceID)
	}
	return s.db.UpdateRaceResult(ctx, result)
}

// DeleteRaceResult removes a result and the race's reference to it.
// The underlying time events stay; re-posting any of them rebuilds the
// result.
func (s *Service) DeleteRaceResult(ctx context.Context, raceID, id string) error {
	return s.db.InTx(ctx, func(tx *database.Tx) error {
		result, err := tx.GetRaceResult(ctx, id)
		if err != nil {
			return err
		}
		if result.RaceID != raceID {
			return models.NotFoundf("race result %s not found in race %s", id, raceID)
		}
		if err := tx.DeleteRaceResult(ctx, id); err != nil {
			return err
		}

		race, err := tx.GetRace(ctx, raceID)
		if err != nil {
			return err
		}
		if race.Results[result.TimingPoint] == id {
			delete(race.Results, result.TimingPoint)
			return tx.UpdateRace(ctx, race)
		}
		return nil
	})
}
