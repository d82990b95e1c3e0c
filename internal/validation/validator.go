// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package validation provides struct validation using
// go-playground/validator v10: a thread-safe singleton instance with
// Heatsheet-specific validators (HH:MM:SS durations, time-of-day clock
// readings) and error translation into the single detail string the
// API renders on 4xx responses.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/heatsheet/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance, initialized
// once with the custom validators.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// hhmmss: durations in the competition-format wire form.
		mustRegister("hhmmss", func(fl validator.FieldLevel) bool {
			_, err := models.ParseHHMMSS(fl.Field().String())
			return err == nil
		})

		// timeofday: zero-padded clock readings, as carried by
		// time-event registration times.
		mustRegister("timeofday", func(fl validator.FieldLevel) bool {
			return models.ValidTimeOfDay(fl.Field().String())
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %q validator: %v", tag, err))
	}
}

// ValidateStruct validates s and returns the domain validation error
// with a translated detail message, or nil when s is valid.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.Validationf("%v", err)
	}

	messages := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		messages[i] = translateError(fe)
	}
	return models.Validationf("%s", strings.Join(messages, "; "))
}

// errorMessageTemplates maps parameterless validation tags to message
// templates taking the field name.
var errorMessageTemplates = map[string]string{
	"required":  "%s is required",
	"hhmmss":    "%s must be a duration in HH:MM:SS form",
	"timeofday": "%s must be a zero-padded HH:MM:SS clock reading",
	"datetime":  "%s must be a valid date/time",
	"uuid":      "%s must be a UUID",
}

// errorMessageWithParam maps parameterized tags to templates taking
// the field name and the tag parameter.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must have at least %s elements",
	"max":   "%s must have at most %s elements",
}

// translateError converts a validator.FieldError into a reader-facing
// message.
func translateError(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
