// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"
	"database/sql"

	"github.com/tomtom215/heatsheet/internal/models"
)

// CreateRaceResult inserts a new race result. The unique index on
// (race_id, timing_point) guarantees at most one result per pair.
func (o ops) CreateRaceResult(ctx context.Context, result *models.RaceResult) error {
	doc, err := marshalDoc(result)
	if err != nil {
		return err
	}
	_, err = o.r.ExecContext(ctx,
		`INSERT INTO race_results (id, race_id, timing_point, doc) VALUES (?, ?, ?, ?)`,
		result.ID, result.RaceID, result.TimingPoint, doc)
	if isDuplicateKey(err) {
		return models.Conflictf("race result already exists for race %s at %s",
			result.RaceID, result.TimingPoint)
	}
	return err
}

// GetRaceResult returns the race result with the given id.
func (o ops) GetRaceResult(ctx context.Context, id string) (*models.RaceResult, error) {
	var result models.RaceResult
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM race_results WHERE id = ?`, id), &result, "race result", id)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRaceResultByPair returns the result for one (race, timing point)
// pair, or nil without error when the pair has no result yet.
func (o ops) GetRaceResultByPair(ctx context.Context, raceID, timingPoint string) (*models.RaceResult, error) {
	var doc string
	err := o.r.QueryRowContext(ctx,
		`SELECT doc FROM race_results WHERE race_id = ? AND timing_point = ?`,
		raceID, timingPoint).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var result models.RaceResult
	if err := unmarshalDoc(doc, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListRaceResultsByRace returns all results of one race, optionally
// narrowed to a single timing point.
func (o ops) ListRaceResultsByRace(ctx context.Context, raceID, timingPoint string) ([]models.RaceResult, error) {
	if timingPoint != "" {
		rows, err := o.r.QueryContext(ctx,
			`SELECT doc FROM race_results WHERE race_id = ? AND timing_point = ?`,
			raceID, timingPoint)
		if err != nil {
			return nil, err
		}
		return collectDocs[models.RaceResult](rows)
	}
	rows, err := o.r.QueryContext(ctx,
		`SELECT doc FROM race_results WHERE race_id = ? ORDER BY timing_point`, raceID)
	if err != nil {
		return nil, err
	}
	return collectDocs[models.RaceResult](rows)
}

// UpdateRaceResult replaces the stored race result document.
func (o ops) UpdateRaceResult(ctx context.Context, result *models.RaceResult) error {
	doc, err := marshalDoc(result)
	if err != nil {
		return err
	}
	res, err := o.r.ExecContext(ctx,
		`UPDATE race_results SET race_id = ?, timing_point = ?, doc = ? WHERE id = ?`,
		result.RaceID, result.TimingPoint, doc, result.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "race result", result.ID)
}

// DeleteRaceResult removes the race result document only.
func (o ops) DeleteRaceResult(ctx context.Context, id string) error {
	res, err := o.r.ExecContext(ctx, `DELETE FROM race_results WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "race result", id)
}

// DeleteRaceResultsByRace removes every result of one race, as part of
// the raceplan delete cascade.
func (o ops) DeleteRaceResultsByRace(ctx context.Context, raceID string) error {
	_, err := o.r.ExecContext(ctx, `DELETE FROM race_results WHERE race_id = ?`, raceID)
	return err
}
