// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tomtom215/heatsheet/internal/models"
)

// FormatsClient talks to the competition format service, the catalog
// of named formats and their progression matrices.
type FormatsClient struct {
	svc *service
}

// NewFormatsClient builds a competition format service adapter.
func NewFormatsClient(baseURL string, httpClient *http.Client, tokens *TokenSource) *FormatsClient {
	return &FormatsClient{svc: newService("competition-format-service", baseURL, httpClient, tokens)}
}

// GetByName fetches the competition format with the given name. The
// catalog answers a list; an empty list means the format is unknown.
func (c *FormatsClient) GetByName(ctx context.Context, name string) (*models.CompetitionFormat, error) {
	var formats []models.CompetitionFormat
	path := "/competition-formats?name=" + url.QueryEscape(name)
	if err := c.svc.getJSON(ctx, path, &formats); err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, models.NotFoundf("competition format %q not found", name)
	}
	return &formats[0], nil
}
