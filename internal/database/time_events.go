// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"

	"github.com/tomtom215/heatsheet/internal/models"
)

// CreateTimeEvent inserts a new time event. Each row draws a value
// from seq_time_events so arrival order is reconstructible; the
// ranking tie-break beyond (registration time, bib) is this insertion
// order.
func (o ops) CreateTimeEvent(ctx context.Context, event *models.TimeEvent) error {
	doc, err := marshalDoc(event)
	if err != nil {
		return err
	}
	_, err = o.r.ExecContext(ctx,
		`INSERT INTO time_events (id, event_id, race_id, bib, timing_point, created_seq, doc)
		 VALUES (?, ?, ?, ?, ?, nextval('seq_time_events'), ?)`,
		event.ID, event.EventID, event.RaceID, event.Bib, event.TimingPoint, doc)
	if isDuplicateKey(err) {
		return models.Conflictf("time event %s already exists", event.ID)
	}
	return err
}

// GetTimeEvent returns the time event with the given id.
func (o ops) GetTimeEvent(ctx context.Context, id string) (*models.TimeEvent, error) {
	var event models.TimeEvent
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM time_events WHERE id = ?`, id), &event, "time event", id)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// TimeEventFilter narrows ListTimeEvents. Zero values are ignored.
type TimeEventFilter struct {
	EventID     string
	RaceID      string
	TimingPoint string
	Bib         int
}

// ListTimeEvents returns time events matching the filter in arrival
// order.
func (o ops) ListTimeEvents(ctx context.Context, filter TimeEventFilter) ([]models.TimeEvent, error) {
	query := `SELECT doc FROM time_events WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if filter.EventID != "" {
		query += ` AND event_id = ?`
		args = append(args, filter.EventID)
	}
	if filter.RaceID != "" {
		query += ` AND race_id = ?`
		args = append(args, filter.RaceID)
	}
	if filter.TimingPoint != "" {
		query += ` AND timing_point = ?`
		args = append(args, filter.TimingPoint)
	}
	if filter.Bib > 0 {
		query += ` AND bib = ?`
		args = append(args, filter.Bib)
	}
	query += ` ORDER BY created_seq`

	rows, err := o.r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectDocs[models.TimeEvent](rows)
}

// UpdateTimeEvent replaces the stored time event document. The arrival
// sequence number is immutable.
func (o ops) UpdateTimeEvent(ctx context.Context, event *models.TimeEvent) error {
	doc, err := marshalDoc(event)
	if err != nil {
		return err
	}
	res, err := o.r.ExecContext(ctx,
		`UPDATE time_events SET event_id = ?, race_id = ?, bib = ?, timing_point = ?, doc = ?
		 WHERE id = ?`,
		event.EventID, event.RaceID, event.Bib, event.TimingPoint, doc, event.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "time event", event.ID)
}

// DeleteTimeEvent removes the time event document only. Re-ranking of
// the affected race result is the processor's job.
func (o ops) DeleteTimeEvent(ctx context.Context, id string) error {
	res, err := o.r.ExecContext(ctx, `DELETE FROM time_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "time event", id)
}
