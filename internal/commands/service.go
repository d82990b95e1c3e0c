// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package commands is the orchestration layer between the API and the
// generators, processor, and store. It validates preconditions, holds
// the per-event and per-race locks, performs multi-document writes in
// one transaction, and keeps the cross-document invariants (race and
// startlist entry references, dense starting positions, plan totals)
// intact.
package commands

import (
	"context"
	"errors"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/timing"
)

// EventSource supplies the event documents owned by the event service.
type EventSource interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	GetRaceclasses(ctx context.Context, eventID string) ([]models.Raceclass, error)
	GetContestants(ctx context.Context, eventID string) ([]models.Contestant, error)
	GetEventFormat(ctx context.Context, eventID string) (*models.CompetitionFormat, error)
}

// FormatSource supplies competition formats from the format catalog.
type FormatSource interface {
	GetByName(ctx context.Context, name string) (*models.CompetitionFormat, error)
}

// Service executes the administration commands.
type Service struct {
	db        *database.DB
	events    EventSource
	formats   FormatSource
	processor *timing.Processor

	// eventLocks serializes the generation commands per event.
	eventLocks timing.KeyedMutex
}

// NewService wires the command layer.
func NewService(db *database.DB, events EventSource, formats FormatSource, processor *timing.Processor) *Service {
	return &Service{db: db, events: events, formats: formats, processor: processor}
}

// resolveFormat fetches the competition format for an event: the
// event's own format configuration when the event service carries one,
// the named catalog entry otherwise.
func (s *Service) resolveFormat(ctx context.Context, event *models.Event) (*models.CompetitionFormat, error) {
	format, err := s.events.GetEventFormat(ctx, event.ID)
	if err == nil {
		return format, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if event.CompetitionFormat == "" {
		return nil, models.Validationf("event %s has no competition format", event.ID)
	}
	return s.formats.GetByName(ctx, event.CompetitionFormat)
}
