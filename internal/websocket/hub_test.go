// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/heatsheet/internal/config"
	"github.com/tomtom215/heatsheet/internal/stream"
	"github.com/tomtom215/heatsheet/internal/timing"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Serve(ctx) }()

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	conn := dial(t, srv)

	// Wait for the register to land before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Broadcast(Message{Type: MessageTypeResultUpdate, Data: map[string]string{"race_id": "race-1"}})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != MessageTypeResultUpdate {
		t.Errorf("message type = %q, want %q", msg.Type, MessageTypeResultUpdate)
	}
}

func TestClientPingGetsPong(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Serve(ctx) }()

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("message type = %q, want %q", msg.Type, MessageTypePong)
	}
}

func TestBridgeForwardsBusMessages(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Serve(ctx) }()

	bus, err := stream.New(&config.StreamConfig{Mode: config.StreamModeChannel})
	if err != nil {
		t.Fatalf("stream.New() error = %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	bridge := NewBridge(hub, bus)
	go func() { _ = bridge.Serve(ctx) }()

	srv := httptest.NewServer(Handler(hub))
	defer srv.Close()
	conn := dial(t, srv)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	bus.PublishResultUpdate(ctx, timing.ResultUpdate{EventID: "event-1", RaceID: "race-1", TimingPoint: "Finish"})

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read forwarded update: %v", err)
	}
	if msg.Type != MessageTypeResultUpdate {
		t.Errorf("message type = %q, want %q", msg.Type, MessageTypeResultUpdate)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["race_id"] != "race-1" {
		t.Errorf("data = %#v, want race_id race-1", msg.Data)
	}
}
