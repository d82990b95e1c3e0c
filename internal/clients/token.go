// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package clients

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/heatsheet/internal/logging"
)

// tokenLifetime is how long a login token is reused before fetching a
// fresh one. The user service issues 24h tokens; refreshing hourly
// keeps a healthy margin without hammering the login endpoint.
const tokenLifetime = time.Hour

// TokenSource obtains and caches a bearer token for outbound adapter
// calls by logging the configured admin user into the user service.
// Safe for concurrent use.
type TokenSource struct {
	login    func(ctx context.Context, username, password string) (string, error)
	username string
	password string

	mu      sync.Mutex
	token   string
	fetched time.Time
}

// NewTokenSource builds a token source around the user service login.
func NewTokenSource(users *UsersClient, username, password string) *TokenSource {
	return &TokenSource{
		login:    users.Login,
		username: username,
		password: password,
	}
}

// Token returns a cached token, logging in again when the cache is
// empty or stale.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Since(ts.fetched) < tokenLifetime {
		return ts.token, nil
	}

	token, err := ts.login(ctx, ts.username, ts.password)
	if err != nil {
		return "", err
	}

	ts.token = token
	ts.fetched = time.Now()
	logging.Debug().Str("username", ts.username).Msg("adapter token refreshed")
	return token, nil
}

// Invalidate drops the cached token so the next call logs in again.
// Called when an upstream answers 401 on a supposedly valid token.
func (ts *TokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.mu.Unlock()
}
