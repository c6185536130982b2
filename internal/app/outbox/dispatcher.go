package outbox

import (
	"context"
	"log/slog"
	"sync"
)

// Subscriber receives a committed event record in-process. Subscribers run
// synchronously after the enclosing transaction has committed; a failing
// subscriber is logged and never undoes the committed state transition.
type Subscriber func(ctx context.Context, record EventRecord)

// Dispatcher fans committed event records out to local subscribers, keyed by
// event name. The empty name subscribes to every event.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[string][]Subscriber
	logger      *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		subscribers: map[string][]Subscriber{},
		logger:      logger,
	}
}

func (d *Dispatcher) Subscribe(eventName string, fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[eventName] = append(d.subscribers[eventName], fn)
}

// Publish delivers each record to its subscribers. Panics are contained per
// subscriber so one broken listener cannot starve the rest.
func (d *Dispatcher) Publish(ctx context.Context, records ...EventRecord) {
	for _, rec := range records {
		d.mu.RLock()
		subs := make([]Subscriber, 0, len(d.subscribers[rec.Name])+len(d.subscribers[""]))
		subs = append(subs, d.subscribers[rec.Name]...)
		subs = append(subs, d.subscribers[""]...)
		d.mu.RUnlock()
		for _, fn := range subs {
			d.deliver(ctx, fn, rec)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, fn Subscriber, rec EventRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event subscriber failed", "event", rec.Name, "aggregate", rec.Aggregate, "panic", r)
		}
	}()
	fn(ctx, rec)
}

// Staging collects the records a single command added, so the dispatch
// middleware can publish exactly that command's events once it commits.
type Staging struct {
	mu      sync.Mutex
	records []EventRecord
}

func (s *Staging) add(record EventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

// Drain returns the staged records and resets the staging area.
func (s *Staging) Drain() []EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records
	s.records = nil
	return records
}

type stagingKey struct{}

// ContextWithStaging attaches a fresh staging area to the context.
func ContextWithStaging(ctx context.Context) (context.Context, *Staging) {
	staging := &Staging{}
	return context.WithValue(ctx, stagingKey{}, staging), staging
}

// StagingFromContext returns the staging area installed by the dispatch
// middleware, if any.
func StagingFromContext(ctx context.Context) (*Staging, bool) {
	staging, ok := ctx.Value(stagingKey{}).(*Staging)
	return staging, ok
}

// Staged wraps an outbox so every record added during a command is also kept
// aside for in-process dispatch. Without a staging area in the context the
// wrapper is transparent.
func Staged(inner Outbox) Outbox {
	return stagedOutbox{inner: inner}
}

type stagedOutbox struct {
	inner Outbox
}

func (s stagedOutbox) Add(ctx context.Context, record EventRecord) error {
	if staging, ok := StagingFromContext(ctx); ok {
		staging.add(record)
	}
	return s.inner.Add(ctx, record)
}

func (s stagedOutbox) Flush(ctx context.Context) error {
	return s.inner.Flush(ctx)
}
