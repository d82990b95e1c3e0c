// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"

	"github.com/tomtom215/heatsheet/internal/models"
)

// CreateRace inserts a new race.
func (o ops) CreateRace(ctx context.Context, race *models.Race) error {
	doc, err := marshalDoc(race)
	if err != nil {
		return err
	}
	_, err = o.r.ExecContext(ctx,
		`INSERT INTO races (id, raceplan_id, event_id, raceclass, race_order, doc)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		race.ID, race.RaceplanID, race.EventID, race.Raceclass, race.Order, doc)
	if isDuplicateKey(err) {
		return models.Conflictf("race %s already exists", race.ID)
	}
	return err
}

// GetRace returns the race with the given id.
func (o ops) GetRace(ctx context.Context, id string) (*models.Race, error) {
	var race models.Race
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM races WHERE id = ?`, id), &race, "race", id)
	if err != nil {
		return nil, err
	}
	return &race, nil
}

// ListRaces returns all races, optionally filtered by event, sorted by
// schedule order.
func (o ops) ListRaces(ctx context.Context, eventID string) ([]models.Race, error) {
	if eventID != "" {
		rows, err := o.r.QueryContext(ctx,
			`SELECT doc FROM races WHERE event_id = ? ORDER BY race_order`, eventID)
		if err != nil {
			return nil, err
		}
		return collectDocs[models.Race](rows)
	}
	rows, err := o.r.QueryContext(ctx, `SELECT doc FROM races ORDER BY event_id, race_order`)
	if err != nil {
		return nil, err
	}
	return collectDocs[models.Race](rows)
}

// ListRacesByRaceplan returns the races of one raceplan sorted by
// schedule order.
func (o ops) ListRacesByRaceplan(ctx context.Context, raceplanID string) ([]models.Race, error) {
	rows, err := o.r.QueryContext(ctx,
		`SELECT doc FROM races WHERE raceplan_id = ? ORDER BY race_order`, raceplanID)
	if err != nil {
		return nil, err
	}
	return collectDocs[models.Race](rows)
}

// UpdateRace replaces the stored race document.
func (o ops) UpdateRace(ctx context.Context, race *models.Race) error {
	doc, err := marshalDoc(race)
	if err != nil {
		return err
	}
	res, err := o.r.ExecContext(ctx,
		`UPDATE races SET raceplan_id = ?, event_id = ?, raceclass = ?, race_order = ?, doc = ?
		 WHERE id = ?`,
		race.RaceplanID, race.EventID, race.Raceclass, race.Order, doc, race.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "race", race.ID)
}

// DeleteRace removes the race document only.
func (o ops) DeleteRace(ctx context.Context, id string) error {
	res, err := o.r.ExecContext(ctx, `DELETE FROM races WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "race", id)
}
