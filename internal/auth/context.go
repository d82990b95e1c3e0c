// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package auth

import "context"

type contextKey string

const subjectKey contextKey = "auth_subject"

// SystemUser attributes changelog entries made without an
// authenticated caller (internal propagation, unauthenticated GETs).
const SystemUser = "system"

// ContextWithSubject stores the authenticated token subject.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFromContext returns the authenticated token subject, or
// SystemUser when the request carried none.
func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(subjectKey).(string); ok && s != "" {
		return s
	}
	return SystemUser
}
