// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package auth guards the mutating HTTP surface.
//
// Two authorizer implementations exist behind one interface. The
// remote authorizer (the default) forwards the bearer token and the
// required role list to the user service and caches allow verdicts in
// a Badger TTL store, so a timing box posting hundreds of time events
// does not turn every request into an upstream round trip. The local
// authorizer verifies HMAC-signed JWTs issued by this process's own
// /login endpoint and enforces a casbin role policy, for standalone
// deployments without a user service.
//
// Either way the token subject ends up in the request context and is
// used to attribute changelog entries.
package auth
