// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package clients holds the HTTP adapters for the collaborating
// sportsapp services: the event service (events, raceclasses,
// contestants), the competition format service (format catalog), and
// the user service (token authorization and login).
//
// Every adapter shares one pooled http.Client and wraps its calls in a
// circuit breaker; an open breaker or transport failure surfaces as
// the domain dependency error, which the API layer maps to 502.
// Outbound calls are additionally rate limited so a raceplan
// generation burst cannot flood the upstream services.
package clients
