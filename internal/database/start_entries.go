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

// CreateStartEntry inserts a new start entry.
func (o ops) CreateStartEntry(ctx context.Context, entry *models.StartEntry) error {
	doc, err := marshalDoc(entry)
	if err != nil {
		return err
	}
	_, err = o.r.ExecContext(ctx,
		`INSERT INTO start_entries (id, race_id, startlist_id, bib, doc)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.RaceID, entry.StartlistID, entry.Bib, doc)
	if isDuplicateKey(err) {
		return models.Conflictf("start entry %s already exists", entry.ID)
	}
	return err
}

// GetStartEntry returns the start entry with the given id.
func (o ops) GetStartEntry(ctx context.Context, id string) (*models.StartEntry, error) {
	var entry models.StartEntry
	err := scanDoc(o.r.QueryRowContext(ctx,
		`SELECT doc FROM start_entries WHERE id = ?`, id), &entry, "start entry", id)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetStartEntryByRaceAndBib returns the start entry of a bib in one
// race, or nil without error when the bib has no entry there.
func (o ops) GetStartEntryByRaceAndBib(ctx context.Context, raceID string, bib int) (*models.StartEntry, error) {
	var doc string
	err := o.r.QueryRowContext(ctx,
		`SELECT doc FROM start_entries WHERE race_id = ? AND bib = ?`, raceID, bib).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry models.StartEntry
	if err := unmarshalDoc(doc, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListStartEntriesByRace returns the entries of one race sorted by
// starting position.
func (o ops) ListStartEntriesByRace(ctx context.Context, raceID string) ([]models.StartEntry, error) {
	rows, err := o.r.QueryContext(ctx,
		`SELECT doc FROM start_entries WHERE race_id = ?`, raceID)
	if err != nil {
		return nil, err
	}
	entries, err := collectDocs[models.StartEntry](rows)
	if err != nil {
		return nil, err
	}
	sortStartEntries(entries)
	return entries, nil
}

// ListStartEntriesByStartlist returns the entries belonging to one
// startlist.
func (o ops) ListStartEntriesByStartlist(ctx context.Context, startlistID string) ([]models.StartEntry, error) {
	rows, err := o.r.QueryContext(ctx,
		`SELECT doc FROM start_entries WHERE startlist_id = ?`, startlistID)
	if err != nil {
		return nil, err
	}
	entries, err := collectDocs[models.StartEntry](rows)
	if err != nil {
		return nil, err
	}
	sortStartEntries(entries)
	return entries, nil
}

// UpdateStartEntry replaces the stored start entry document.
func (o ops) UpdateStartEntry(ctx context.Context, entry *models.StartEntry) error {
	doc, err := marshalDoc(entry)
	if err != nil {
		return err
	}
	res, err := o.r.ExecContext(ctx,
		`UPDATE start_entries SET race_id = ?, startlist_id = ?, bib = ?, doc = ?
		 WHERE id = ?`,
		entry.RaceID, entry.StartlistID, entry.Bib, doc, entry.ID)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "start entry", entry.ID)
}

// DeleteStartEntry removes the start entry document only.
func (o ops) DeleteStartEntry(ctx context.Context, id string) error {
	res, err := o.r.ExecContext(ctx, `DELETE FROM start_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, "start entry", id)
}

// DeleteStartEntriesByRace removes every entry of one race, as part of
// the raceplan delete cascade.
func (o ops) DeleteStartEntriesByRace(ctx context.Context, raceID string) error {
	_, err := o.r.ExecContext(ctx, `DELETE FROM start_entries WHERE race_id = ?`, raceID)
	return err
}
