package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakePublisher struct {
	channel    string
	data       []byte
	attrs      map[string]string
	publishErr error
	published  int
	closed     bool
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.published++
	f.channel = channel
	f.data = data
	f.attrs = attrs
	if f.publishErr != nil {
		return "", f.publishErr
	}
	return "msg-1", nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func newTestEmitter(pub Publisher) *Emitter {
	return &Emitter{
		publisher: pub,
		topic:     "content-changes",
		log:       logrus.WithField("component", "events"),
	}
}

func TestEmitPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	emitter := newTestEmitter(pub)

	emitter.Emit(context.Background(), "job", "created", "7")

	if pub.channel != "content-changes" {
		t.Fatalf("unexpected channel: %q", pub.channel)
	}
	var event Event
	if err := json.Unmarshal(pub.data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Resource != "job" || event.Action != "created" || event.ID != "7" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.OccurredAt.IsZero() {
		t.Fatalf("expected occurredAt to be set")
	}
	if pub.attrs["resource"] != "job" || pub.attrs["action"] != "created" {
		t.Fatalf("unexpected attrs: %v", pub.attrs)
	}
}

// Bulk deletions pass a comma-separated id list through unchanged.
func TestEmitBulkIDList(t *testing.T) {
	pub := &fakePublisher{}
	emitter := newTestEmitter(pub)

	emitter.Emit(context.Background(), "image", "deleted", "i1,i2,i3")

	var event Event
	if err := json.Unmarshal(pub.data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.ID != "i1,i2,i3" {
		t.Fatalf("expected id list to pass through, got %q", event.ID)
	}
}

func TestEmitSwallowsPublishFailure(t *testing.T) {
	pub := &fakePublisher{publishErr: errors.New("broker down")}
	emitter := newTestEmitter(pub)

	// Must not panic or surface the error.
	emitter.Emit(context.Background(), "album", "updated", "a1")

	if pub.published != 1 {
		t.Fatalf("expected one publish attempt, got %d", pub.published)
	}
}

func TestNilEmitterIsValid(t *testing.T) {
	var emitter *Emitter

	emitter.Emit(context.Background(), "job", "deleted", "1")
	if err := emitter.Close(); err != nil {
		t.Fatalf("nil emitter close: %v", err)
	}
}

func TestEmitterClose(t *testing.T) {
	pub := &fakePublisher{}
	emitter := newTestEmitter(pub)

	if err := emitter.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !pub.closed {
		t.Fatalf("expected underlying publisher to be closed")
	}
}
