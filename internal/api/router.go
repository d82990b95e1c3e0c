// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package api exposes the HTTP surface of the race administration
// service: document CRUD for the six entity collections, the raceplan
// and startlist generation commands, time-event ingestion, and the
// operational endpoints (health, metrics, swagger, live results).
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/heatsheet/internal/auth"
	"github.com/tomtom215/heatsheet/internal/commands"
	"github.com/tomtom215/heatsheet/internal/config"
	"github.com/tomtom215/heatsheet/internal/database"
	"github.com/tomtom215/heatsheet/internal/middleware"
)

// Router wires the command service and its operational companions into
// an http.Handler.
type Router struct {
	service    *commands.Service
	db         *database.DB
	authorizer auth.Authorizer
	login      http.HandlerFunc
	resultsWS  http.Handler
	cfg        *config.Config
}

// New returns a Router. login may be nil (remote auth mode has no
// local login endpoint) and resultsWS may be nil (streaming disabled).
func New(cfg *config.Config, db *database.DB, service *commands.Service, authorizer auth.Authorizer, login http.HandlerFunc, resultsWS http.Handler) *Router {
	return &Router{
		service:    service,
		db:         db,
		authorizer: authorizer,
		login:      login,
		resultsWS:  resultsWS,
		cfg:        cfg,
	}
}

// Handler builds the route tree. Reads are open; every mutating route
// group is guarded by the authorizer with the role set its resource
// accepts.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", rt.ping)
	r.Get("/ready", rt.ready)
	if rt.cfg.Server.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/swagger/doc.json", rt.openAPIDocument)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if rt.login != nil {
		r.Post("/login", rt.login)
	}
	if rt.resultsWS != nil {
		r.Handle("/ws/results", rt.resultsWS)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		if !rt.cfg.Security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(rt.cfg.Security.RateLimitReqs, rt.cfg.Security.RateLimitWindow))
		}

		r.Route("/raceplans", func(r chi.Router) {
			guard := auth.Require(rt.authorizer, auth.ResourceRaceplans, auth.AdminRoles)
			r.Get("/", rt.listRaceplans)
			r.Get("/{raceplanId}", rt.getRaceplan)
			r.With(guard).Post("/", rt.createRaceplan)
			r.With(guard).Post("/generate-raceplan-for-event", rt.generateRaceplan)
			r.With(guard).Post("/{raceplanId}/validate", rt.validateRaceplan)
			r.With(guard).Put("/{raceplanId}", rt.updateRaceplan)
			r.With(guard).Delete("/{raceplanId}", rt.deleteRaceplan)
		})

		r.Route("/startlists", func(r chi.Router) {
			guard := auth.Require(rt.authorizer, auth.ResourceStartlists, auth.AdminRoles)
			r.Get("/", rt.listStartlists)
			r.Get("/{startlistId}", rt.getStartlist)
			r.With(guard).Post("/", rt.createStartlist)
			r.With(guard).Post("/generate-startlist-for-event", rt.generateStartlist)
			r.With(guard).Put("/{startlistId}", rt.updateStartlist)
			r.With(guard).Delete("/{startlistId}", rt.deleteStartlist)
		})

		r.Route("/races", func(r chi.Router) {
			guard := auth.Require(rt.authorizer, auth.ResourceRaces, auth.AdminRoles)
			r.Get("/", rt.listRaces)
			r.Get("/{raceId}", rt.getRace)
			r.With(guard).Post("/", rt.createRace)
			r.With(guard).Put("/{raceId}", rt.updateRace)
			r.With(guard).Delete("/{raceId}", rt.deleteRace)

			r.Route("/{raceId}/start-entries", func(r chi.Router) {
				guard := auth.Require(rt.authorizer, auth.ResourceStartEntries, auth.StartEntryRoles)
				r.Get("/", rt.listStartEntries)
				r.Get("/{startEntryId}", rt.getStartEntry)
				r.With(guard).Post("/", rt.createStartEntry)
				r.With(guard).Put("/{startEntryId}", rt.updateStartEntry)
				r.With(guard).Delete("/{startEntryId}", rt.deleteStartEntry)
			})

			r.Route("/{raceId}/race-results", func(r chi.Router) {
				guard := auth.Require(rt.authorizer, auth.ResourceRaceResults, auth.ResultRoles)
				r.Get("/", rt.listRaceResults)
				r.Get("/{raceResultId}", rt.getRaceResult)
				r.With(guard).Put("/{raceResultId}", rt.updateRaceResult)
				r.With(guard).Delete("/{raceResultId}", rt.deleteRaceResult)
			})
		})

		r.Route("/time-events", func(r chi.Router) {
			guard := auth.Require(rt.authorizer, auth.ResourceTimeEvents, auth.ResultRoles)
			r.Get("/", rt.listTimeEvents)
			r.Get("/{timeEventId}", rt.getTimeEvent)
			r.With(guard).Post("/", rt.createTimeEvent)
			r.With(guard).Delete("/{timeEventId}", rt.deleteTimeEvent)
		})
	})

	return r
}
