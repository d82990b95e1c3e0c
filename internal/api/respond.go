// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/models"
)

// maxBodyBytes caps request bodies. Startlist documents are the
// largest legitimate payload and stay well under this.
const maxBodyBytes = 4 << 20

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// writeCreated renders v with 201 and a Location header for the new
// document.
func writeCreated(w http.ResponseWriter, location string, v interface{}) {
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, v)
}

// writeError maps a domain error to its HTTP status and renders the
// single-field detail body. Unclassified errors become opaque 500s.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		detail = "internal server error"
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnprocessable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDependency):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeBody parses a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return models.Validationf("invalid request body: %v", err)
	}
	return nil
}
