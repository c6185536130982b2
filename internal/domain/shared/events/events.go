package events

import "time"

// DomainEvent is produced on state transitions and published to external
// listeners after the enclosing transaction commits. Handlers build the
// event values and hand them straight to the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
