// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

package websocket

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/logging"
)

// Subscriber is the consuming side of the results bus.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// Bridge forwards result updates from the bus to the hub. It runs as
// its own supervised service so a bus hiccup never takes the client
// connections down with it.
type Bridge struct {
	hub *Hub
	bus Subscriber
}

// NewBridge returns a bridge between bus and hub.
func NewBridge(hub *Hub, bus Subscriber) *Bridge {
	return &Bridge{hub: hub, bus: bus}
}

func (b *Bridge) String() string { return "results-bridge" }

// Serve consumes bus messages until ctx is canceled.
func (b *Bridge) Serve(ctx context.Context) error {
	messages, err := b.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			var data interface{}
			if err := json.Unmarshal(msg.Payload, &data); err != nil {
				logging.Error().Err(err).Str("message_id", msg.UUID).Msg("malformed result update on bus")
				msg.Ack()
				continue
			}
			b.hub.Broadcast(Message{Type: MessageTypeResultUpdate, Data: data})
			msg.Ack()
		}
	}
}
