// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/models"
)

// Authorizer decides whether a bearer token may act on a resource.
// resource names the casbin object for local enforcement; roles is the
// role list forwarded to the user service for remote enforcement. On
// success the token subject is returned for changelog attribution.
type Authorizer interface {
	Authorize(ctx context.Context, token, resource string, roles []string) (subject string, err error)
}

// Require builds a chi middleware that authorizes every request
// through the given authorizer and stores the token subject in the
// request context.
func Require(authorizer Authorizer, resource string, roles []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeDetail(w, http.StatusUnauthorized, "missing or malformed Authorization header")
				return
			}

			subject, err := authorizer.Authorize(r.Context(), token, resource, roles)
			if err != nil {
				status := http.StatusUnauthorized
				detail := "token not authorized"
				switch {
				case errors.Is(err, models.ErrForbidden):
					status = http.StatusForbidden
					detail = "token lacks a required role"
				case errors.Is(err, models.ErrDependency):
					status = http.StatusBadGateway
					detail = "authorization service unavailable"
					logging.Error().Err(err).Msg("authorization dependency failed")
				}
				writeDetail(w, status, detail)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// writeDetail renders the single-field error body used across the API.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		logging.Error().Err(err).Msg("failed to encode error response")
	}
}
