// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package database persists the six Heatsheet entity kinds in an
// embedded DuckDB database.
//
// Documents are stored whole: each table carries the entity id, the
// columns needed for secondary lookups (event_id, race_id, bib,
// timing_point, ...), and the full document as JSON. Updates replace
// the whole document; reads unmarshal it back. Cross-document
// consistency is the orchestrator's job; the store guarantees per-key
// lookups and atomic multi-statement transactions.
//
// Multi-document commands run inside InTx, which hands the caller a
// *Tx exposing the same entity operations bound to one DuckDB
// transaction. A failed command rolls the transaction back, leaving no
// partial writes behind.
package database
