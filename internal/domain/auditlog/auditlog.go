package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"partylodge/internal/domain/bungalow"
)

// EntryData is the structured payload of a log entry. Values are kept as
// strings so entries stay stable across schema changes.
type EntryData map[string]string

// Entry is one append-only audit record for a bungalow. Entries are never
// mutated; they are deleted only in cascade when an available bungalow's
// offer is withdrawn.
type Entry struct {
	ID         string
	OccurredAt time.Time
	EventType  string
	BungalowID bungalow.BungalowID
	Data       EntryData
}

// BuildEntry assembles, but does not persist, a log entry.
func BuildEntry(eventType string, bungalowID bungalow.BungalowID, data EntryData) Entry {
	if data == nil {
		data = EntryData{}
	}
	return Entry{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		EventType:  eventType,
		BungalowID: bungalowID,
		Data:       data,
	}
}

// Log is the persistence port for audit entries. Append runs inside the same
// transaction as the ledger mutation it documents.
type Log interface {
	Append(ctx context.Context, entry Entry) error
	ListForBungalow(ctx context.Context, bungalowID bungalow.BungalowID) ([]Entry, error)
	ListForBungalowByType(ctx context.Context, bungalowID bungalow.BungalowID, eventType string) ([]Entry, error)
	DeleteForBungalow(ctx context.Context, bungalowID bungalow.BungalowID) error
}
