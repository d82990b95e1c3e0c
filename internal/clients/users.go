// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package clients

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/models"
)

// UsersClient talks to the user service, which authorizes bearer
// tokens against role lists and issues tokens on login.
type UsersClient struct {
	svc *service
}

// NewUsersClient builds a user service adapter. The adapter itself
// never attaches a token: Authorize forwards the caller's token in the
// body and Login is the call that produces tokens.
func NewUsersClient(baseURL string, httpClient *http.Client) *UsersClient {
	return &UsersClient{svc: newService("user-service", baseURL, httpClient, nil)}
}

type authorizeRequest struct {
	Token string   `json:"token"`
	Roles []string `json:"roles"`
}

// Authorize checks that token grants one of the given roles. A 204
// answer authorizes; 401 and 403 map to the matching domain errors.
func (c *UsersClient) Authorize(ctx context.Context, token string, roles []string) error {
	body, err := json.Marshal(authorizeRequest{Token: token, Roles: roles})
	if err != nil {
		return models.Validationf("failed to serialize authorize request: %v", err)
	}

	status, _, err := c.svc.do(ctx, http.MethodPost, "/authorize", body,
		http.StatusNoContent, http.StatusOK)
	if err != nil {
		switch status {
		case http.StatusUnauthorized:
			return models.ErrUnauthorized
		case http.StatusForbidden:
			return models.ErrForbidden
		}
		return c.svc.wrap("/authorize", err)
	}
	return nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *UsersClient) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", models.Validationf("failed to serialize login request: %v", err)
	}

	status, data, err := c.svc.do(ctx, http.MethodPost, "/login", body, http.StatusOK)
	if err != nil {
		if status == http.StatusUnauthorized {
			return "", models.ErrUnauthorized
		}
		return "", c.svc.wrap("/login", err)
	}

	var resp loginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", models.Dependencyf("user-service returned malformed login response: %v", err)
	}
	if resp.Token == "" {
		return "", models.Dependencyf("user-service returned empty token")
	}
	return resp.Token, nil
}
