// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// RoleChecker is the slice of the user service the remote authorizer
// needs. Satisfied by *clients.UsersClient.
type RoleChecker interface {
	Authorize(ctx context.Context, token string, roles []string) error
}

// RemoteAuthorizer delegates token checks to the user service and
// caches allow verdicts.
type RemoteAuthorizer struct {
	users RoleChecker
	cache *VerdictCache
}

// NewRemoteAuthorizer builds the remote authorizer. cache may be nil,
// in which case every request goes upstream.
func NewRemoteAuthorizer(users RoleChecker, cache *VerdictCache) *RemoteAuthorizer {
	return &RemoteAuthorizer{users: users, cache: cache}
}

// Authorize implements Authorizer. The resource name is unused here;
// the user service works from the role list alone.
func (a *RemoteAuthorizer) Authorize(ctx context.Context, token, _ string, roles []string) (string, error) {
	if a.cache != nil {
		if subject, ok := a.cache.Allowed(token, roles); ok {
			return subject, nil
		}
	}

	if err := a.users.Authorize(ctx, token, roles); err != nil {
		return "", err
	}

	subject := unverifiedSubject(token)
	if a.cache != nil {
		a.cache.StoreAllow(token, roles, subject)
	}
	return subject, nil
}

// unverifiedSubject extracts the sub claim without verifying the
// signature. The user service has already vouched for the token; the
// subject is only used to attribute changelog entries.
func unverifiedSubject(token string) string {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return SystemUser
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub
	}
	return SystemUser
}
