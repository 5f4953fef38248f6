package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bbm-admin/apiserver/config"
	"github.com/sirupsen/logrus"
)

// Event notifies downstream consumers (the public site cache, search
// indexers) that back-office content changed.
type Event struct {
	// Resource is the changed resource kind: "job", "album" or "image".
	Resource string `json:"resource"`

	// Action is "created", "updated" or "deleted".
	Action string `json:"action"`

	// ID identifies the changed record. Bulk deletions carry a
	// comma-separated id list.
	ID string `json:"id,omitempty"`

	// OccurredAt is when the change was committed.
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends serialized events to a broker channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Emitter publishes content-change events best-effort. Publish
// failures are logged and never surfaced to API callers. A nil Emitter
// is valid and drops every event.
type Emitter struct {
	publisher Publisher
	topic     string
	log       *logrus.Entry
}

// NewEmitter constructs an Emitter for the configured backend, or nil
// when no backend is configured.
func NewEmitter(ctx context.Context, cfg config.EventsConfig) (*Emitter, error) {
	var publisher Publisher
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := NewRabbitMQPublisher(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		publisher = client
	case "pubsub":
		client, err := NewPubSubPublisher(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		publisher = client
	default:
		return nil, errors.New("unknown events backend: " + cfg.Backend)
	}

	return &Emitter{
		publisher: publisher,
		topic:     cfg.Topic,
		log:       logrus.WithField("component", "events"),
	}, nil
}

// Emit publishes a single content-change event.
func (e *Emitter) Emit(ctx context.Context, resource, action, id string) {
	if e == nil {
		return
	}

	event := Event{
		Resource:   resource,
		Action:     action,
		ID:         id,
		OccurredAt: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		e.log.WithError(err).Warn("failed to encode event")
		return
	}

	attrs := map[string]string{
		"resource": resource,
		"action":   action,
	}
	if _, err := e.publisher.Publish(ctx, e.topic, data, attrs); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"resource": resource,
			"action":   action,
		}).Warn("failed to publish event")
	}
}

// Close closes the underlying publisher.
func (e *Emitter) Close() error {
	if e == nil || e.publisher == nil {
		return nil
	}
	return e.publisher.Close()
}
