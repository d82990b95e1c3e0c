// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package supervisor builds the suture tree that keeps the server's
// long-running services alive: the HTTP listener, the websocket hub
// and its bus bridge, and the auth-cache garbage collector.
//
// Two child supervisors isolate failures: a crash in the streaming
// layer never takes the HTTP listener down, and vice versa.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Tree is the supervisor hierarchy.
//
//	heatsheet
//	├── streaming: websocket hub, bus bridge
//	└── api: HTTP server, auth cache GC
type Tree struct {
	root      *suture.Supervisor
	streaming *suture.Supervisor
	api       *suture.Supervisor
}

// New builds the tree. logger receives suture lifecycle events.
func New(logger *slog.Logger) *Tree {
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := suture.Spec{
		EventHook:        hook,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	}

	root := suture.New("heatsheet", spec)
	streaming := suture.New("streaming", spec)
	api := suture.New("api", spec)
	root.Add(streaming)
	root.Add(api)

	return &Tree{root: root, streaming: streaming, api: api}
}

// AddStreamingService supervises a service in the streaming layer.
func (t *Tree) AddStreamingService(s suture.Service) {
	t.streaming.Add(s)
}

// AddAPIService supervises a service in the API layer.
func (t *Tree) AddAPIService(s suture.Service) {
	t.api.Add(s)
}

// Serve runs the tree until ctx is canceled, then shuts every service
// down and returns.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}
