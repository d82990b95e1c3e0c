// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/heatsheet/config.yaml",
	"/etc/heatsheet/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Timeout:        30 * time.Second,
			MetricsEnabled: true,
		},
		Database: DatabaseConfig{
			Path:      "/data/heatsheet.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Clients: ClientsConfig{
			EventsHost:            "localhost",
			EventsPort:            8082,
			CompetitionFormatHost: "localhost",
			CompetitionFormatPort: 8094,
			UsersHost:             "localhost",
			UsersPort:             8086,
			Timeout:               10 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:          AuthModeRemote,
			JWTSecret:         "",
			AdminUsername:     "",
			AdminPassword:     "",
			CachePath:         "/data/authcache",
			CacheTTL:          time.Minute,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			CasbinModelPath:   "",
			CasbinPolicyPath:  "",
		},
		Stream: StreamConfig{
			Mode:           StreamModeChannel,
			NATSURL:        "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			CloseTimeout:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive from the environment as plain strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		// Already a slice when sourced from YAML.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Variable names follow the sportsapp deployment convention
// (EVENTS_HOST_SERVER, COMPETITION_FORMAT_HOST_PORT, ...), so the mapping
// is an explicit table rather than a mechanical prefix rewrite. Unmapped
// variables are skipped to keep unrelated environment noise out of the
// configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"host":            "server.host",
		"port":            "server.port",
		"http_timeout":    "server.timeout",
		"metrics_enabled": "server.metrics_enabled",

		// Database
		"db_path":       "database.path",
		"db_max_memory": "database.max_memory",
		"db_threads":    "database.threads",

		// Collaborating services
		"events_host_server":             "clients.events_host",
		"events_host_port":               "clients.events_port",
		"competition_format_host_server": "clients.competition_format_host",
		"competition_format_host_port":   "clients.competition_format_port",
		"users_host_server":              "clients.users_host",
		"users_host_port":                "clients.users_port",
		"client_timeout":                 "clients.timeout",

		// Security
		"auth_mode":           "security.auth_mode",
		"jwt_secret":          "security.jwt_secret",
		"admin_username":      "security.admin_username",
		"admin_password":      "security.admin_password",
		"auth_cache_path":     "security.cache_path",
		"auth_cache_ttl":      "security.cache_ttl",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",
		"casbin_model_path":   "security.casbin_model_path",
		"casbin_policy_path":  "security.casbin_policy_path",

		// Result streaming
		"stream_mode":     "stream.mode",
		"nats_url":        "stream.nats_url",
		"nats_embedded":   "stream.embedded_server",
		"nats_store_dir":  "stream.store_dir",
		"nats_max_memory": "stream.max_memory",
		"nats_max_store":  "stream.max_store",

		// Logging
		"logging_level":  "logging.level",
		"logging_format": "logging.format",
		"log_caller":     "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
