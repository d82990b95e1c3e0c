// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaStatements creates the six entity tables. Every table stores
// the whole document as JSON next to the columns the secondary lookups
// filter on. Uniqueness that the domain requires at the storage level
// (one raceplan and one startlist per event, one race result per
// (race, timing point)) is enforced with unique indexes so concurrent
// generation commands cannot slip past the orchestrator's checks.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS raceplans (
		id       VARCHAR PRIMARY KEY,
		event_id VARCHAR NOT NULL,
		doc      VARCHAR NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_raceplans_event ON raceplans(event_id)`,

	`CREATE TABLE IF NOT EXISTS races (
		id          VARCHAR PRIMARY KEY,
		raceplan_id VARCHAR NOT NULL,
		event_id    VARCHAR NOT NULL,
		raceclass   VARCHAR NOT NULL,
		race_order  INTEGER NOT NULL,
		doc         VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_races_event ON races(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_races_raceplan ON races(raceplan_id)`,

	`CREATE TABLE IF NOT EXISTS startlists (
		id       VARCHAR PRIMARY KEY,
		event_id VARCHAR NOT NULL,
		doc      VARCHAR NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_startlists_event ON startlists(event_id)`,

	`CREATE TABLE IF NOT EXISTS start_entries (
		id           VARCHAR PRIMARY KEY,
		race_id      VARCHAR NOT NULL,
		startlist_id VARCHAR NOT NULL,
		bib          INTEGER NOT NULL,
		doc          VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_start_entries_race ON start_entries(race_id)`,
	`CREATE INDEX IF NOT EXISTS idx_start_entries_startlist ON start_entries(startlist_id)`,

	`CREATE TABLE IF NOT EXISTS time_events (
		id           VARCHAR PRIMARY KEY,
		event_id     VARCHAR NOT NULL,
		race_id      VARCHAR,
		bib          INTEGER,
		timing_point VARCHAR NOT NULL,
		created_seq  BIGINT NOT NULL,
		doc          VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_time_events_event ON time_events(event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_time_events_race ON time_events(race_id)`,
	`CREATE SEQUENCE IF NOT EXISTS seq_time_events START 1`,

	`CREATE TABLE IF NOT EXISTS race_results (
		id           VARCHAR PRIMARY KEY,
		race_id      VARCHAR NOT NULL,
		timing_point VARCHAR NOT NULL,
		doc          VARCHAR NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_race_results_pair ON race_results(race_id, timing_point)`,
}

// createSchema creates all tables and indexes. Statements are
// idempotent so reopening an existing database is a no-op.
func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
