// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/models"
)

// runner is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Entity operations are written against it once and exposed both on
// DB (auto-commit) and Tx (transactional) through the embedded ops.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ops implements all entity operations against a runner.
type ops struct {
	r runner
}

// isDuplicateKey reports whether err is a DuckDB unique-constraint
// violation. DuckDB surfaces these as textual constraint errors rather
// than a typed error value.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "Constraint Error")
}

// marshalDoc serializes an entity document for the doc column.
func marshalDoc(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", models.Validationf("failed to serialize document: %v", err)
	}
	return string(b), nil
}

// unmarshalDoc deserializes a doc column back into an entity.
func unmarshalDoc(doc string, out interface{}) error {
	return json.Unmarshal([]byte(doc), out)
}

// sortStartEntries orders entries by starting position, then bib for
// entries that share a position transiently during repropagation.
func sortStartEntries(entries []models.StartEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].StartingPosition != entries[j].StartingPosition {
			return entries[i].StartingPosition < entries[j].StartingPosition
		}
		return entries[i].Bib < entries[j].Bib
	})
}

// scanDoc unmarshals one doc column into out, translating
// sql.ErrNoRows into the domain not-found error.
func scanDoc(row *sql.Row, out interface{}, kind, id string) error {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return models.NotFoundf("%s %s not found", kind, id)
		}
		return err
	}
	return json.Unmarshal([]byte(doc), out)
}

// collectDocs unmarshals every doc row into a slice of T.
func collectDocs[T any](rows *sql.Rows) ([]T, error) {
	defer rows.Close() //nolint:errcheck // read-only cursor

	out := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// requireRowAffected translates a zero-row update or delete into the
// domain not-found error.
func requireRowAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NotFoundf("%s %s not found", kind, id)
	}
	return nil
}
