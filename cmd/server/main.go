// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Heatsheet is the race administration service for cross-country ski
// events. It plans races from competition formats, seeds startlists,
// ingests time events from timing systems, and propagates sprint heat
// qualifiers to later rounds.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/heatsheet/internal/api"
	"github.com/tomtom215/heatsheet/internal/auth"
	"github.com/tomtom215/heatsheet/internal/clients"
	"github.com/tomtom215/heatsheet/internal/commands"
	"github.com/tomtom215/heatsheet/internal/config"
	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/stream"
	"github.com/tomtom215/heatsheet/internal/supervisor"
	"github.com/tomtom215/heatsheet/internal/timing"
	"github.com/tomtom215/heatsheet/internal/websocket"
)

const cacheGCInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("auth_mode", cfg.Security.AuthMode).
		Str("stream_mode", cfg.Stream.Mode).
		Msg("starting heatsheet")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close database")
		}
	}()

	httpClient := clients.NewHTTPClient(cfg.Clients.Timeout)
	usersClient := clients.NewUsersClient(cfg.Clients.UsersBaseURL(), httpClient)
	tokens := clients.NewTokenSource(usersClient, cfg.Security.AdminUsername, cfg.Security.AdminPassword)
	eventsClient := clients.NewEventsClient(cfg.Clients.EventsBaseURL(), httpClient, tokens)
	formatsClient := clients.NewFormatsClient(cfg.Clients.CompetitionFormatBaseURL(), httpClient, tokens)

	tree := supervisor.New(logging.NewSlogLogger())

	var (
		authorizer auth.Authorizer
		login      http.HandlerFunc
	)
	switch cfg.Security.AuthMode {
	case config.AuthModeLocal:
		local, err := auth.NewLocalAuthorizer(
			cfg.Security.JWTSecret,
			cfg.Security.AdminUsername,
			cfg.Security.AdminPassword,
			cfg.Security.CasbinModelPath,
			cfg.Security.CasbinPolicyPath,
		)
		if err != nil {
			return fmt.Errorf("build local authorizer: %w", err)
		}
		authorizer = local
		login = local.LoginHandler

	case config.AuthModeRemote:
		cache, err := auth.NewVerdictCache(cfg.Security.CachePath, cfg.Security.CacheTTL)
		if err != nil {
			logging.Warn().Err(err).Msg("verdict cache unavailable, authorizing without cache")
		} else {
			defer func() {
				if err := cache.Close(); err != nil {
					logging.Error().Err(err).Msg("failed to close verdict cache")
				}
			}()
			tree.AddAPIService(supervisor.NewCacheGCService(cache, cacheGCInterval))
		}
		authorizer = auth.NewRemoteAuthorizer(usersClient, cache)

	default:
		return fmt.Errorf("unknown auth mode %q", cfg.Security.AuthMode)
	}

	bus, err := stream.New(&cfg.Stream)
	if err != nil {
		return fmt.Errorf("build results bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("failed to close results bus")
		}
	}()

	hub := websocket.NewHub()
	tree.AddStreamingService(hub)
	tree.AddStreamingService(websocket.NewBridge(hub, bus))

	processor := timing.NewProcessor(db, bus)
	service := commands.NewService(db, eventsClient, formatsClient, processor)
	router := api.New(cfg, db, service, authorizer, login, websocket.Handler(hub))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("shutdown complete")
	return nil
}
