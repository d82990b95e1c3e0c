// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package commands

import (
	"context"

	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/models"
)

// IngestTimeEvent routes an incoming time event through the processor.
// The returned event carries the outcome even when the error is
// non-nil: a rejected event is persisted with status "Error".
func (s *Service) IngestTimeEvent(ctx context.Context, subject string, event *models.TimeEvent) (*models.TimeEvent, error) {
	return s.processor.Ingest(ctx, subject, event)
}

// GetTimeEvent returns one time event.
func (s *Service) GetTimeEvent(ctx context.Context, id string) (*models.TimeEvent, error) {
	return s.db.GetTimeEvent(ctx, id)
}

// ListTimeEvents returns time events matching the filter in arrival
// order.
func (s *Service) ListTimeEvents(ctx context.Context, filter database.TimeEventFilter) ([]models.TimeEvent, error) {
	return s.db.ListTimeEvents(ctx, filter)
}

// DeleteTimeEvent removes a time event and repairs the derived ranking
// and propagation state.
func (s *Service) DeleteTimeEvent(ctx context.Context, subject, id string) error {
	return s.processor.Delete(ctx, subject, id)
}
