// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"

	"github.com/tomtom215/heatsheet/internal/models"
)

// CreateRaceplan inserts a new raceplan. The unique index on event_id
// turns a concurrent second plan for the same event into a conflict.
func (o ops) CreateRaceplan(ctx context.Context, plan *models.Raceplan) error {
	doc, err := marshalDoc(plan)
	if err != nil {
		return err
	}
	_, err = o.r.ExecContext(ctx,
		`INSERT INTO raceplans (id, event_id, doc) VALUES (?, ?, ?)`,
		plan.ID, plan.EventID, doc)
	if isDuplicateKey(err) {
		return models.Conflictf("raceplan already exists for event %s", plan.EventID)
	}
	return err
}

// GetRaceplan returns the raceplan with the given id.
func (o ops) GetRaceplan(ctx context.Context, id string) (*models.Raceplan, error) {
	var plan models.Raceplan
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM raceplans WHERE id = ?`, id), &plan, "raceplan", id)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetRaceplanByEvent returns the raceplan for an event, or the domain
// not-found error when the event has none.
func (o ops) GetRaceplanByEvent(ctx context.Context, eventID string) (*models.Raceplan, error) {
	var plan models.Raceplan
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM raceplans WHERE event_id = ?`, eventID), &plan, "raceplan for event", eventID)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListRaceplans returns all raceplans, optionally filtered by event.
func (o ops) ListRaceplans(ctx context.Context, eventID string) ([]models.Raceplan, error) {
	if eventID != "" {
		rows, err := o.r.QueryContext(ctx,
			`SELECT doc FROM raceplans WHERE event_id = ?`, eventID)
		if err != nil {
			return nil, err
		}
		return collectDocs[models.Raceplan](rows)
	}
	rows, err := o.r.QueryContext(ctx, `SELECT doc FROM raceplans ORDER BY event_id`)
	if err != nil {
		return nil, err
	}
	return collectDocs[models.Raceplan](rows)
}

// UpdateRaceplan replaces the stored raceplan document.
func (o ops) UpdateRaceplan(ctx context.Context, plan *models.Raceplan) error {
	doc, err := marshalDoc(plan)
	if err != nil {
		return err
	}
	res, err := o.r.ExecContext(ctx,
		`UPDATE raceplans SET event_id = ?, doc = ? WHERE id = ?`,
		plan.EventID, doc, plan.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "raceplan", plan.ID)
}

// DeleteRaceplan removes the raceplan document only. Cascading to
// races, start entries, and results is the orchestrator's decision.
func (o ops) DeleteRaceplan(ctx context.Context, id string) error {
	res, err := o.r.ExecContext(ctx, `DELETE FROM raceplans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "raceplan", id)
}
