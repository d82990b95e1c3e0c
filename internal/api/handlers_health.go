// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"net/http"

	"github.com/tomtom215/heatsheet/internal/logging"
)

// ping answers liveness probes without touching any dependency.
func (rt *Router) ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("pong")); err != nil {
		logging.Error().Err(err).Msg("failed to write ping response")
	}
}

// ready answers readiness probes, checking the database connection.
func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := rt.db.Ping(r.Context()); err != nil {
		logging.Error().Err(err).Msg("readiness check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("database unavailable")); err != nil {
			logging.Error().Err(err).Msg("failed to write readiness response")
		}
		return
	}
	if _, err := w.Write([]byte("ready")); err != nil {
		logging.Error().Err(err).Msg("failed to write readiness response")
	}
}
