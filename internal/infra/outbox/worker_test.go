package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	queue    []*EventDocument
	sent     []string
	failed   []string
	claimers []string
}

func (s *fakeStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.claimers = append(s.claimers, workerID)
	if len(s.queue) == 0 {
		return nil, nil
	}
	doc := s.queue[0]
	s.queue = s.queue[1:]
	return doc, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.failed = append(s.failed, id)
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	published []published
	err       error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func doc(id, name string) *EventDocument {
	return &EventDocument{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"bungalow_id":"b1"}`),
		OccurredAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "b1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestWorkerPublishesCloudEvent(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{doc("evt-1", "bungalow.reserved")}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, ID: "test-worker"}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(producer.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(producer.published))
	}

	msg := producer.published[0]
	if msg.topic != "bungalow.events.v1" {
		t.Fatalf("expected topic from first name segment, got %q", msg.topic)
	}
	if msg.key != "b1" {
		t.Fatalf("expected aggregate as partition key, got %q", msg.key)
	}
	if msg.headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("expected cloudevents content type, got %q", msg.headers["content-type"])
	}
	if msg.headers["traceparent"] != "00-abc-def-01" {
		t.Fatalf("expected traceparent carried over, got %v", msg.headers)
	}

	var envelope map[string]any
	if err := json.Unmarshal(msg.payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope["specversion"] != "1.0" {
		t.Fatalf("expected specversion 1.0, got %v", envelope["specversion"])
	}
	if envelope["type"] != "bungalow.reserved.v1" {
		t.Fatalf("expected versioned type, got %v", envelope["type"])
	}
	if envelope["source"] != "app://partylodge" {
		t.Fatalf("expected default source, got %v", envelope["source"])
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok || data["bungalow_id"] != "b1" {
		t.Fatalf("expected data payload embedded, got %v", envelope["data"])
	}

	if len(store.sent) != 1 || store.sent[0] != "evt-1" {
		t.Fatalf("expected evt-1 marked sent, got %v", store.sent)
	}
}

func TestWorkerTopicPrefix(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{doc("evt-1", "bungalow.occupied")}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "staging."}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if producer.published[0].topic != "staging.bungalow.events.v1" {
		t.Fatalf("expected prefixed topic, got %q", producer.published[0].topic)
	}
}

func TestWorkerMarksFailedOnPublishError(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{doc("evt-1", "bungalow.reserved")}}
	producer := &fakeProducer{err: errors.New("broker down")}
	w := &Worker{Store: store, Producer: producer}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("publish failure must not stop the worker: %v", err)
	}
	if len(store.failed) != 1 || store.failed[0] != "evt-1" {
		t.Fatalf("expected evt-1 marked failed, got %v", store.failed)
	}
	if len(store.sent) != 0 {
		t.Fatalf("failed record must not be marked sent, got %v", store.sent)
	}
}

func TestWorkerMarksFailedOnCorruptPayload(t *testing.T) {
	corrupt := doc("evt-1", "bungalow.reserved")
	corrupt.Payload = []byte("not json")
	store := &fakeStore{queue: []*EventDocument{corrupt}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("corrupt payload must not stop the worker: %v", err)
	}
	if len(producer.published) != 0 {
		t.Fatal("corrupt payload must not be published")
	}
	if len(store.failed) != 1 {
		t.Fatalf("expected one failed record, got %v", store.failed)
	}
}

func TestWorkerIdleTick(t *testing.T) {
	store := &fakeStore{}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer}

	if err := w.processOnce(context.Background()); err != nil {
		t.Fatalf("empty outbox: %v", err)
	}
	if len(producer.published) != 0 || len(store.sent) != 0 {
		t.Fatal("idle tick must not publish or ack anything")
	}
}

func TestWorkerRunRequiresDependencies(t *testing.T) {
	w := &Worker{}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("expected ErrWorkerNotConfigured, got %v", err)
	}
}

func TestNextRetryBackoff(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute}}

	before := time.Now()
	first := w.nextRetry(0)
	if first.Before(before.Add(time.Second - 50*time.Millisecond)) {
		t.Fatalf("first retry too early: %v", first.Sub(before))
	}
	last := w.nextRetry(7)
	if last.Before(before.Add(time.Minute - 50*time.Millisecond)) {
		t.Fatalf("attempts beyond the schedule must reuse the last backoff, got %v", last.Sub(before))
	}
}

func TestWorkerClaimsWithStableID(t *testing.T) {
	store := &fakeStore{queue: []*EventDocument{doc("e1", "bungalow.reserved"), doc("e2", "bungalow.released")}}
	w := &Worker{Store: store, Producer: &fakeProducer{}}

	for i := 0; i < 3; i++ {
		if err := w.processOnce(context.Background()); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if len(store.claimers) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(store.claimers))
	}
	if store.claimers[0] == "" {
		t.Fatal("worker must claim with a non-empty identity")
	}
	if store.claimers[1] != store.claimers[0] || store.claimers[2] != store.claimers[0] {
		t.Fatalf("claim identity must be stable across ticks, got %v", store.claimers)
	}
}
