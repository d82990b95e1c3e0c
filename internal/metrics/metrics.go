// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package metrics defines the Prometheus instrumentation: HTTP request
// metrics recorded by middleware, and domain counters for the
// generation commands and the time-event pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface.

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatsheet_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "heatsheet_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heatsheet_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Generation commands.

	GenerationCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatsheet_generation_commands_total",
			Help: "Raceplan and startlist generation commands by outcome",
		},
		[]string{"command", "outcome"}, // command: raceplan|startlist, outcome: ok|conflict|error
	)

	// Time-event pipeline.

	TimeEventsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatsheet_time_events_accepted_total",
			Help: "Time events attached to a race result, by timing point",
		},
		[]string{"timing_point"},
	)

	TimeEventsErrored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatsheet_time_events_errored_total",
			Help: "Time events persisted with status Error",
		},
	)

	PropagationsApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatsheet_propagations_applied_total",
			Help: "Completed heats whose qualifiers were pushed to later rounds",
		},
	)

	PropagationConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "heatsheet_propagation_conflicts_total",
			Help: "Propagations rolled back because a target race would overflow",
		},
	)

	// Live results fan-out.

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "heatsheet_websocket_clients",
			Help: "Connected live-result websocket clients",
		},
	)

	StreamMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heatsheet_stream_messages_published_total",
			Help: "Messages published on the results bus, by topic",
		},
		[]string{"topic"},
	)
)

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
