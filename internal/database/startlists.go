// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"

	"github.com/tomtom215/heatsheet/internal/models"
)

// CreateStartlist inserts a new startlist. The unique index on
// event_id rejects a concurrent second startlist for the same event.
func (o ops) CreateStartlist(ctx context.Context, list *models.Startlist) error {
	doc, err := marshalDoc(list)
	if err != nil {
		return err
	}
	_, err = o.r.ExecContext(ctx,
		`INSERT INTO startlists (id, event_id, doc) VALUES (?, ?, ?)`,
		list.ID, list.EventID, doc)
	if isDuplicateKey(err) {
		return models.Conflictf("startlist already exists for event %s", list.EventID)
	}
	return err
}

// GetStartlist returns the startlist with the given id.
func (o ops) GetStartlist(ctx context.Context, id string) (*models.Startlist, error) {
	var list models.Startlist
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM startlists WHERE id = ?`, id), &list, "startlist", id)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetStartlistByEvent returns the startlist for an event.
func (o ops) GetStartlistByEvent(ctx context.Context, eventID string) (*models.Startlist, error) {
	var list models.Startlist
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM startlists WHERE event_id = ?`, eventID), &list, "startlist for event", eventID)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// ListStartlists returns all startlists, optionally filtered by event.
func (o ops) ListStartlists(ctx context.Context, eventID string) ([]models.Startlist, error) {
	if eventID != "" {
		rows, err := o.r.QueryContext(ctx,
			`SELECT doc FROM startlists WHERE event_id = ?`, eventID)
		if err != nil {
			return nil, err
		}
		return collectDocs[models.Startlist](rows)
	}
	rows, err := o.r.QueryContext(ctx, `SELECT doc FROM startlists ORDER BY event_id`)
	if err != nil {
		return nil, err
	}
	return collectDocs[models.Startlist](rows)
}

// UpdateStartlist replaces the stored startlist document.
func (o ops) UpdateStartlist(ctx context.Context, list *models.Startlist) error {
	doc, err := marshalDoc(list)
	if err != nil {
		return err
	}
	res, err := o.r.ExecContext(ctx,
		`UPDATE startlists SET event_id = ?, doc = ? WHERE id = ?`,
		list.EventID, doc, list.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "startlist", list.ID)
}

// DeleteStartlist removes the startlist document only.
func (o ops) DeleteStartlist(ctx context.Context, id string) error {
	res, err := o.r.ExecContext(ctx, `DELETE FROM startlists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "startlist", id)
}
