// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package clients

import (
	"context"
	"net/http"

	"github.com/tomtom215/heatsheet/internal/models"
)

// EventsClient talks to the event service, which owns events,
// raceclasses, and contestants.
type EventsClient struct {
	svc *service
}

// NewEventsClient builds an event service adapter.
func NewEventsClient(baseURL string, httpClient *http.Client, tokens *TokenSource) *EventsClient {
	return &EventsClient{svc: newService("event-service", baseURL, httpClient, tokens)}
}

// GetEvent fetches one event by id.
func (c *EventsClient) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	if err := c.svc.getJSON(ctx, "/events/"+eventID, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// GetRaceclasses fetches the raceclasses of an event.
func (c *EventsClient) GetRaceclasses(ctx context.Context, eventID string) ([]models.Raceclass, error) {
	var raceclasses []models.Raceclass
	if err := c.svc.getJSON(ctx, "/events/"+eventID+"/raceclasses", &raceclasses); err != nil {
		return nil, err
	}
	return raceclasses, nil
}

// GetContestants fetches the contestants of an event in seeded order.
func (c *EventsClient) GetContestants(ctx context.Context, eventID string) ([]models.Contestant, error) {
	var contestants []models.Contestant
	if err := c.svc.getJSON(ctx, "/events/"+eventID+"/contestants", &contestants); err != nil {
		return nil, err
	}
	return contestants, nil
}

// GetEventFormat fetches the competition format attached to an event.
// Not every deployment of the event service exposes this; callers fall
// back to the format catalog on not-found.
func (c *EventsClient) GetEventFormat(ctx context.Context, eventID string) (*models.CompetitionFormat, error) {
	var format models.CompetitionFormat
	if err := c.svc.getJSON(ctx, "/events/"+eventID+"/format", &format); err != nil {
		return nil, err
	}
	return &format, nil
}
