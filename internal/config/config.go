// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package config loads and validates Heatsheet configuration.
//
// Configuration is layered with Koanf v2: built-in defaults first, then an
// optional YAML file, then environment variables on top. Config is immutable
// after Load and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order:
//  1. Defaults: built-in values for every optional setting
//  2. Config file: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment variables: override any setting
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Clients  ClientsConfig  `koanf:"clients"`
	Security SecurityConfig `koanf:"security"`
	Stream   StreamConfig   `koanf:"stream"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment variables:
//   - HOST: listen address (default: 0.0.0.0)
//   - PORT: listen port (default: 8080)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
//   - METRICS_ENABLED: expose Prometheus metrics at /metrics (default: true)
type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	Timeout        time.Duration `koanf:"timeout"`
	MetricsEnabled bool          `koanf:"metrics_enabled"`
}

// DatabaseConfig holds DuckDB settings.
//
// Environment variables:
//   - DB_PATH: database file path, ":memory:" for in-memory (default: /data/heatsheet.duckdb)
//   - DB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DB_THREADS: DuckDB thread count, 0 = runtime.NumCPU() (default: 0)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// ClientsConfig holds the addresses of the collaborating services that
// own events, competition formats, and users. Hosts and ports are kept
// separate to match the deployment convention of the surrounding
// sportsapp services.
//
// Environment variables:
//   - EVENTS_HOST_SERVER / EVENTS_HOST_PORT: event service (default: localhost:8082)
//   - COMPETITION_FORMAT_HOST_SERVER / COMPETITION_FORMAT_HOST_PORT: format service (default: localhost:8094)
//   - USERS_HOST_SERVER / USERS_HOST_PORT: user service for token authorization (default: localhost:8086)
//   - CLIENT_TIMEOUT: per-request timeout for outbound calls (default: 10s)
type ClientsConfig struct {
	EventsHost            string        `koanf:"events_host"`
	EventsPort            int           `koanf:"events_port"`
	CompetitionFormatHost string        `koanf:"competition_format_host"`
	CompetitionFormatPort int           `koanf:"competition_format_port"`
	UsersHost             string        `koanf:"users_host"`
	UsersPort             int           `koanf:"users_port"`
	Timeout               time.Duration `koanf:"timeout"`
}

// EventsBaseURL returns the base URL of the event service.
func (c ClientsConfig) EventsBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.EventsHost, c.EventsPort)
}

// CompetitionFormatBaseURL returns the base URL of the competition format service.
func (c ClientsConfig) CompetitionFormatBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.CompetitionFormatHost, c.CompetitionFormatPort)
}

// UsersBaseURL returns the base URL of the user service.
func (c ClientsConfig) UsersBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.UsersHost, c.UsersPort)
}

// Auth modes supported by SecurityConfig.AuthMode.
const (
	// AuthModeRemote delegates token authorization to the user service.
	AuthModeRemote = "remote"
	// AuthModeLocal issues and verifies JWTs locally with a casbin role policy.
	AuthModeLocal = "local"
)

// SecurityConfig holds authentication and rate limiting settings.
//
// Environment variables:
//   - AUTH_MODE: remote or local (default: remote)
//   - JWT_SECRET: HMAC secret, required in local mode
//   - ADMIN_USERNAME / ADMIN_PASSWORD: bootstrap admin login, required in local mode
//   - AUTH_CACHE_PATH: badger directory for cached authorize verdicts (default: /data/authcache)
//   - AUTH_CACHE_TTL: verdict cache lifetime (default: 1m)
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: per-IP rate limit (default: 100 per 1m)
//   - DISABLE_RATE_LIMIT: disable rate limiting entirely (default: false)
//   - CORS_ORIGINS: comma-separated list of allowed origins (default: *)
//   - CASBIN_MODEL_PATH / CASBIN_POLICY_PATH: optional policy files for local mode
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	CachePath         string        `koanf:"cache_path"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	CasbinModelPath   string        `koanf:"casbin_model_path"`
	CasbinPolicyPath  string        `koanf:"casbin_policy_path"`
}

// Stream modes supported by StreamConfig.Mode.
const (
	// StreamModeChannel uses the in-process Watermill GoChannel pub/sub.
	StreamModeChannel = "channel"
	// StreamModeNATS publishes over NATS JetStream, optionally embedded.
	StreamModeNATS = "nats"
)

// StreamConfig holds the result streaming settings. Ranked time events
// and official results are published on the bus and fanned out to
// websocket subscribers (live scoreboards at the venue).
//
// Environment variables:
//   - STREAM_MODE: channel or nats (default: channel)
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: run an embedded JetStream server (default: true)
//   - NATS_STORE_DIR: JetStream storage directory (default: /data/nats/jetstream)
//   - NATS_MAX_MEMORY / NATS_MAX_STORE: JetStream limits
type StreamConfig struct {
	Mode           string        `koanf:"mode"`
	NATSURL        string        `koanf:"nats_url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
}

// LoggingConfig holds log settings.
//
// Environment variables:
//   - LOGGING_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOGGING_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateClients(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DB_THREADS must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateClients() error {
	if c.Clients.EventsHost == "" {
		return fmt.Errorf("EVENTS_HOST_SERVER must not be empty")
	}
	if c.Clients.CompetitionFormatHost == "" {
		return fmt.Errorf("COMPETITION_FORMAT_HOST_SERVER must not be empty")
	}
	for name, port := range map[string]int{
		"EVENTS_HOST_PORT":             c.Clients.EventsPort,
		"COMPETITION_FORMAT_HOST_PORT": c.Clients.CompetitionFormatPort,
		"USERS_HOST_PORT":              c.Clients.UsersPort,
	} {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case AuthModeRemote:
		if c.Clients.UsersHost == "" {
			return fmt.Errorf("USERS_HOST_SERVER is required when AUTH_MODE=remote")
		}
	case AuthModeLocal:
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=local")
		}
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required when AUTH_MODE=local")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeRemote, AuthModeLocal, c.Security.AuthMode)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
		}
	}
	return nil
}

func (c *Config) validateStream() error {
	switch c.Stream.Mode {
	case StreamModeChannel:
		return nil
	case StreamModeNATS:
		if !c.Stream.EmbeddedServer && c.Stream.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when STREAM_MODE=nats and NATS_EMBEDDED=false")
		}
		return nil
	default:
		return fmt.Errorf("STREAM_MODE must be %q or %q, got %q", StreamModeChannel, StreamModeNATS, c.Stream.Mode)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOGGING_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOGGING_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
