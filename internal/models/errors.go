// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package models

import (
	"errors"
	"fmt"
)

// Error kinds shared across the repository, command, and API layers.
// Handlers map them to HTTP statuses: ErrNotFound to 404, ErrConflict
// to 409, ErrValidation to 400, ErrUnprocessable to 422, ErrUnauthorized
// to 401, ErrForbidden to 403, and ErrDependency to 502.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrUnprocessable = errors.New("unprocessable")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrDependency    = errors.New("dependency failed")
)

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrNotFound, args)...)
}

// Conflictf wraps ErrConflict with a formatted detail message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrConflict, args)...)
}

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrValidation, args)...)
}

// Unprocessablef wraps ErrUnprocessable with a formatted detail message.
func Unprocessablef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrUnprocessable, args)...)
}

// Dependencyf wraps ErrDependency with a formatted detail message.
func Dependencyf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, prepend(ErrDependency, args)...)
}

func prepend(err error, args []interface{}) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, err)
	return append(out, args...)
}
