package outbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/shared/events"
)

type collectingOutbox struct {
	records []EventRecord
}

func (c *collectingOutbox) Add(ctx context.Context, record EventRecord) error {
	c.records = append(c.records, record)
	return nil
}

func (c *collectingOutbox) Flush(ctx context.Context) error { return nil }

func TestJSONEventEncoder(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ev := bungalow.BungalowReservedEvent{
		BungalowID:     "b1",
		BungalowNumber: 7,
		OccupierID:     "user-1",
		InitiatorID:    "user-1",
		At:             at,
	}

	encoder := JSONEventEncoder{IDGenerator: func() string { return "fixed-id" }}
	record, err := encoder.Encode(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if record.ID != "fixed-id" {
		t.Fatalf("expected injected id, got %q", record.ID)
	}
	if record.Name != "bungalow.reserved" {
		t.Fatalf("expected event name, got %q", record.Name)
	}
	if record.Aggregate != "b1" {
		t.Fatalf("expected aggregate id, got %q", record.Aggregate)
	}
	if !record.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred-at carried over, got %v", record.OccurredAt)
	}

	var payload map[string]any
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["BungalowID"] != "b1" || payload["OccupierID"] != "user-1" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestRecordDomainEvents(t *testing.T) {
	ctx := context.Background()
	box := &collectingOutbox{}
	evs := []events.DomainEvent{
		bungalow.BungalowReservedEvent{BungalowID: "b1", At: time.Now()},
		bungalow.BungalowOccupiedEvent{BungalowID: "b1", At: time.Now()},
	}

	if err := RecordDomainEvents(ctx, box, nil, evs); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(box.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(box.records))
	}
	if box.records[0].Name != "bungalow.reserved" || box.records[1].Name != "bungalow.occupied" {
		t.Fatalf("expected records in event order, got %q then %q", box.records[0].Name, box.records[1].Name)
	}

	if err := RecordDomainEvents(ctx, nil, nil, evs); err != nil {
		t.Fatalf("nil outbox must be a no-op: %v", err)
	}
	if err := RecordDomainEvents(ctx, box, nil, nil); err != nil {
		t.Fatalf("no events must be a no-op: %v", err)
	}
	if len(box.records) != 2 {
		t.Fatalf("no-op calls must not add records, got %d", len(box.records))
	}
}

func TestDispatcherFanOut(t *testing.T) {
	dispatcher := NewDispatcher(discardLogger())

	var reserved, all []string
	dispatcher.Subscribe("bungalow.reserved", func(_ context.Context, record EventRecord) {
		reserved = append(reserved, record.Aggregate)
	})
	dispatcher.Subscribe("", func(_ context.Context, record EventRecord) {
		all = append(all, record.Name)
	})

	dispatcher.Publish(context.Background(),
		EventRecord{ID: "e1", Name: "bungalow.reserved", Aggregate: "b1"},
		EventRecord{ID: "e2", Name: "bungalow.released", Aggregate: "b1"},
	)

	if len(reserved) != 1 || reserved[0] != "b1" {
		t.Fatalf("named subscriber got %v", reserved)
	}
	if len(all) != 2 || all[0] != "bungalow.reserved" || all[1] != "bungalow.released" {
		t.Fatalf("wildcard subscriber got %v", all)
	}
}

func TestDispatcherIsolatesFailingSubscriber(t *testing.T) {
	dispatcher := NewDispatcher(discardLogger())

	dispatcher.Subscribe("", func(context.Context, EventRecord) {
		panic("listener broke")
	})
	var seen int
	dispatcher.Subscribe("", func(context.Context, EventRecord) {
		seen++
	})

	dispatcher.Publish(context.Background(), EventRecord{ID: "e1", Name: "bungalow.occupied"})

	if seen != 1 {
		t.Fatalf("surviving subscriber ran %d times, want 1", seen)
	}
}

func TestStagedOutboxKeepsRecordsForDispatch(t *testing.T) {
	inner := &collectingOutbox{}
	box := Staged(inner)

	ctx, staging := ContextWithStaging(context.Background())
	if err := box.Add(ctx, EventRecord{ID: "e1", Name: "bungalow.reserved"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(inner.records) != 1 {
		t.Fatalf("inner outbox got %d records, want 1", len(inner.records))
	}
	drained := staging.Drain()
	if len(drained) != 1 || drained[0].ID != "e1" {
		t.Fatalf("staging drained %v", drained)
	}
	if len(staging.Drain()) != 0 {
		t.Fatal("drain must reset the staging area")
	}

	// Without a staging area the wrapper is transparent.
	if err := box.Add(context.Background(), EventRecord{ID: "e2"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(inner.records) != 2 {
		t.Fatalf("inner outbox got %d records, want 2", len(inner.records))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
