// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	_ "embed"
	"net/http"

	"github.com/tomtom215/heatsheet/internal/logging"
)

// openAPIDoc is maintained by hand. Keep it in sync with the route
// tree in router.go.
//
//go:embed openapi.json
var openAPIDoc []byte

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write(openAPIDoc); err != nil {
		logging.Error().Err(err).Msg("failed to write openapi document")
	}
}
