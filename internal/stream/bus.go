// Heatsheet - Ski Race Administration Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heatsheet

// Package stream carries result updates from the time-event processor
// to live consumers. In-process deployments run the Watermill GoChannel
// pub/sub; venue deployments with external timing integrations run
// NATS JetStream, optionally embedded in the server process.
package stream

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/heatsheet/internal/config"
	"github.com/tomtom215/heatsheet/internal/logging"
	"github.com/tomtom215/heatsheet/internal/metrics"
	"github.com/tomtom215/heatsheet/internal/models"
	"github.com/tomtom215/heatsheet/internal/timing"
)

// TopicResultUpdates carries one message per recomputed race result.
const TopicResultUpdates = "results.updates"

// Bus is the results pub/sub. It satisfies timing.Publisher on the
// producing side and hands subscribers a message channel on the
// consuming side.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	embedded   *EmbeddedServer

	closeOnce sync.Once
	closeErr  error
}

// New builds the bus for the configured mode.
func New(cfg *config.StreamConfig) (*Bus, error) {
	logger := watermillLogger{}
	switch cfg.Mode {
	case "", config.StreamModeChannel:
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		return &Bus{publisher: ch, subscriber: ch}, nil
	case config.StreamModeNATS:
		return newNATSBus(cfg, logger)
	default:
		return nil, models.Validationf("unknown stream mode %q", cfg.Mode)
	}
}

// PublishResultUpdate publishes one update. Publishing is best effort:
// a bus failure is logged but never fails the ingest that produced the
// update.
func (b *Bus) PublishResultUpdate(_ context.Context, update timing.ResultUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		logging.Error().Err(err).Str("race_id", update.RaceID).Msg("failed to marshal result update")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", update.EventID)
	msg.Metadata.Set("race_id", update.RaceID)
	msg.Metadata.Set("timing_point", update.TimingPoint)

	if err := b.publisher.Publish(TopicResultUpdates, msg); err != nil {
		logging.Error().Err(err).Str("race_id", update.RaceID).Msg("failed to publish result update")
		return
	}
	metrics.StreamMessagesPublished.WithLabelValues(TopicResultUpdates).Inc()
}

// Subscribe returns the result update message channel. The channel
// closes when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, TopicResultUpdates)
}

// Close shuts the pub/sub down, and the embedded NATS server with it.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		if err := b.publisher.Close(); err != nil {
			b.closeErr = err
		}
		if b.subscriber != nil {
			// GoChannel is one object for both sides; closing twice is safe.
			if err := b.subscriber.Close(); err != nil && b.closeErr == nil {
				b.closeErr = err
			}
		}
		if b.embedded != nil {
			b.embedded.Shutdown()
		}
	})
	return b.closeErr
}
