// Package natsutil publishes relay lifecycle events to NATS JetStream as
// CloudEvents.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/qsome/rpa-relay/pkg/models"
)

const (
	eventSource        = "rpa-relay/core"
	eventTypeLifecycle = "com.qsome.relay.node.lifecycle"
)

// EventPublisher publishes CloudEvents to a JetStream stream. It satisfies
// relay.EventPublisher.
type EventPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
}

// Connect dials NATS, ensures the stream exists, and returns a publisher.
func Connect(ctx context.Context, url, streamName, subject string) (*EventPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	_, err = js.Stream(ctx, streamName)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		sc := jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{subject},
		}

		if _, err = js.CreateOrUpdateStream(ctx, sc); err != nil {
			nc.Close()

			return nil, fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
	} else if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to get stream %s: %w", streamName, err)
	}

	return &EventPublisher{nc: nc, js: js, subject: subject}, nil
}

// NewEventPublisher wraps an existing JetStream context. Used by tests.
func NewEventPublisher(js jetstream.JetStream, subject string) *EventPublisher {
	return &EventPublisher{js: js, subject: subject}
}

// PublishNodeLifecycleEvent publishes a node lifecycle event.
func (p *EventPublisher) PublishNodeLifecycleEvent(ctx context.Context, data models.NodeLifecycleEventData) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventTypeLifecycle,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &data.Timestamp,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.subject, eventBytes); err != nil {
		return fmt.Errorf("failed to publish lifecycle event: %w", err)
	}

	return nil
}

// Close drains the underlying connection.
func (p *EventPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
