// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("PORT", "9095")
	t.Setenv("EVENTS_HOST_SERVER", "events.internal")
	t.Setenv("EVENTS_HOST_PORT", "8082")
	t.Setenv("LOGGING_LEVEL", "debug")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("CORS_ORIGINS", "https://resultat.skiforbundet.no, https://live.skiforbundet.no")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9095 {
		t.Errorf("Server.Port = %d, want 9095", cfg.Server.Port)
	}
	if cfg.Clients.EventsHost != "events.internal" {
		t.Errorf("Clients.EventsHost = %q, want events.internal", cfg.Clients.EventsHost)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[1] != "https://live.skiforbundet.no" {
		t.Errorf("CORSOrigins[1] = %q, whitespace not trimmed", cfg.Security.CORSOrigins[1])
	}
}

func TestLoadIgnoresUnmappedEnvironment(t *testing.T) {
	t.Setenv("RANDOM_UNRELATED_VAR", "noise")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestClientBaseURLs(t *testing.T) {
	c := ClientsConfig{
		EventsHost:            "events.local",
		EventsPort:            8082,
		CompetitionFormatHost: "formats.local",
		CompetitionFormatPort: 8094,
		UsersHost:             "users.local",
		UsersPort:             8086,
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"events", c.EventsBaseURL(), "http://events.local:8082"},
		{"formats", c.CompetitionFormatBaseURL(), "http://formats.local:8094"},
		{"users", c.UsersBaseURL(), "http://users.local:8086"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s base URL = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "PORT",
		},
		{
			name:    "empty db path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "DB_PATH",
		},
		{
			name:    "negative db threads",
			mutate:  func(c *Config) { c.Database.Threads = -1 },
			wantErr: "DB_THREADS",
		},
		{
			name:    "empty events host",
			mutate:  func(c *Config) { c.Clients.EventsHost = "" },
			wantErr: "EVENTS_HOST_SERVER",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Security.AuthMode = "oauth" },
			wantErr: "AUTH_MODE",
		},
		{
			name: "local mode without secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = AuthModeLocal
				c.Security.JWTSecret = ""
			},
			wantErr: "JWT_SECRET",
		},
		{
			name: "local mode with short secret",
			mutate: func(c *Config) {
				c.Security.AuthMode = AuthModeLocal
				c.Security.JWTSecret = "short"
			},
			wantErr: "32 characters",
		},
		{
			name: "local mode without admin",
			mutate: func(c *Config) {
				c.Security.AuthMode = AuthModeLocal
				c.Security.JWTSecret = strings.Repeat("s", 32)
				c.Security.AdminUsername = ""
			},
			wantErr: "ADMIN_USERNAME",
		},
		{
			name:    "unknown stream mode",
			mutate:  func(c *Config) { c.Stream.Mode = "kafka" },
			wantErr: "STREAM_MODE",
		},
		{
			name: "nats mode without url",
			mutate: func(c *Config) {
				c.Stream.Mode = StreamModeNATS
				c.Stream.EmbeddedServer = false
				c.Stream.NATSURL = ""
			},
			wantErr: "NATS_URL",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOGGING_LEVEL",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOGGING_FORMAT",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.Security.RateLimitReqs = 0 },
			wantErr: "RATE_LIMIT_REQUESTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsLocalMode(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.AuthMode = AuthModeLocal
	cfg.Security.JWTSecret = strings.Repeat("k", 48)
	cfg.Security.AdminUsername = "admin"
	cfg.Security.AdminPassword = "changeit"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("local mode config should validate, got: %v", err)
	}
}

func TestValidateAcceptsDisabledRateLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limit should skip limit validation, got: %v", err)
	}
}

func TestDefaultTimeouts(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Server.Timeout = %s, want 30s", cfg.Server.Timeout)
	}
	if cfg.Clients.Timeout != 10*time.Second {
		t.Errorf("Clients.Timeout = %s, want 10s", cfg.Clients.Timeout)
	}
	if cfg.Security.CacheTTL != time.Minute {
		t.Errorf("Security.CacheTTL = %s, want 1m", cfg.Security.CacheTTL)
	}
}
