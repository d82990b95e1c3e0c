// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/models"
)

// maxResponseBytes bounds upstream response bodies. The largest
// legitimate payload is a contestant list, well under this limit.
const maxResponseBytes = 8 << 20 // 8 MB

// service is the shared machinery of one upstream adapter: base URL,
// pooled HTTP client, circuit breaker, and client-side rate limiter.
type service struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	tokens  *TokenSource
}

// newService builds the shared adapter machinery. The breaker opens
// after five consecutive failures and probes again after 30 seconds,
// so a dead upstream fails fast instead of stalling request handlers.
func newService(name, baseURL string, httpClient *http.Client, tokens *TokenSource) *service {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx answers are decisions by a healthy upstream, not outages.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *statusError
			return errors.As(err, &se) && se.status < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("service", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &service{
		name:    name,
		baseURL: baseURL,
		http:    httpClient,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(50), 100),
		tokens:  tokens,
	}
}

// statusError carries an unexpected upstream status through the
// breaker so callers can map it onto a domain error kind.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// do performs one upstream request through the limiter and breaker.
// okStatuses lists the statuses treated as success; everything else is
// an error, with 4xx statuses excluded from breaker accounting via
// IsSuccessful since they are answers, not outages.
func (s *service) do(ctx context.Context, method, path string, body []byte, okStatuses ...int) (int, []byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	gotStatus := 0
	payload, err := s.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.tokens != nil {
			token, err := s.tokens.Token(ctx)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck // body drained below

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}

		gotStatus = resp.StatusCode
		for _, ok := range okStatuses {
			if resp.StatusCode == ok {
				return data, nil
			}
		}
		return nil, &statusError{status: resp.StatusCode, body: truncate(string(data), 200)}
	})
	if err != nil {
		return gotStatus, nil, err
	}
	return gotStatus, payload, nil
}

// getJSON fetches path and decodes the 200 response into out.
func (s *service) getJSON(ctx context.Context, path string, out interface{}) error {
	_, data, err := s.do(ctx, http.MethodGet, path, nil, http.StatusOK)
	if err != nil {
		return s.wrap(path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return models.Dependencyf("%s returned malformed response for %s: %v", s.name, path, err)
	}
	return nil
}

// wrap classifies an upstream failure: a 404 becomes the domain
// not-found error, everything else the dependency error.
func (s *service) wrap(path string, err error) error {
	var se *statusError
	if errors.As(err, &se) {
		if se.status == http.StatusNotFound {
			return models.NotFoundf("%s has no resource at %s", s.name, path)
		}
		logging.Error().
			Str("service", s.name).
			Str("path", path).
			Int("status", se.status).
			Msg("upstream request failed")
		return models.Dependencyf("%s answered %d for %s", s.name, se.status, path)
	}
	logging.Error().Err(err).Str("service", s.name).Str("path", path).Msg("upstream unreachable")
	return models.Dependencyf("%s unavailable: %v", s.name, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NewHTTPClient builds the pooled HTTP client shared by all adapters.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
