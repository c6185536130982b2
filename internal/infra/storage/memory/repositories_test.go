package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

func testEntry(id string, bungalowID bungalow.BungalowID) auditlog.Entry {
	return auditlog.Entry{
		ID:         id,
		OccurredAt: time.Now().UTC(),
		EventType:  "bungalow-reserved",
		BungalowID: bungalowID,
		Data:       auditlog.EntryData{},
	}
}

func TestBungalowRegistryNumberUniquePerParty(t *testing.T) {
	ctx := context.Background()
	reg := NewBungalowRegistry()

	save := func(id, party string, number int) error {
		return reg.Save(ctx, &bungalow.Bungalow{
			ID:              bungalow.BungalowID(id),
			PartyID:         party,
			Number:          number,
			OccupationState: bungalow.StateAvailable,
		})
	}
	if err := save("b1", "party-1", 1); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := save("b2", "party-1", 1); !errors.Is(err, ErrNumberTaken) {
		t.Fatalf("expected ErrNumberTaken for same party and number, got %v", err)
	}
	if err := save("b3", "party-2", 1); err != nil {
		t.Fatalf("same number at another party must pass: %v", err)
	}
	// Re-saving the same unit is an update, not a collision.
	if err := save("b1", "party-1", 1); err != nil {
		t.Fatalf("upsert of existing unit: %v", err)
	}
}

func TestBungalowRegistryCopyOnRead(t *testing.T) {
	ctx := context.Background()
	reg := NewBungalowRegistry()
	if err := reg.Save(ctx, &bungalow.Bungalow{ID: "b1", PartyID: "party-1", Number: 1, OccupationState: bungalow.StateAvailable}); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := reg.ByID(ctx, "b1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.OccupationState = bungalow.StateOccupied

	again, err := reg.ByID(ctx, "b1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.OccupationState != bungalow.StateAvailable {
		t.Fatal("mutating a loaded copy must not leak into the store")
	}
}

func TestReservationLedgerSingleWinner(t *testing.T) {
	ctx := context.Background()
	ledger := NewReservationLedger()

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- ledger.Create(ctx, &occupation.Reservation{
				ID:         occupation.ReservationID(string(rune('a' + n))),
				BungalowID: "b1",
			})
		}(i)
	}
	wg.Wait()
	close(results)

	winners, losers := 0, 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, bungalow.ErrNotAvailable):
			losers++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d (losers %d)", winners, losers)
	}
}

func TestReservationLedgerUniqueOrderNumber(t *testing.T) {
	ctx := context.Background()
	ledger := NewReservationLedger()

	if err := ledger.Create(ctx, &occupation.Reservation{ID: "r1", BungalowID: "b1", OrderNumber: "ORDER-1"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := ledger.Create(ctx, &occupation.Reservation{ID: "r2", BungalowID: "b2", OrderNumber: "ORDER-1"})
	if !errors.Is(err, occupation.ErrOrderAlreadyAttached) {
		t.Fatalf("expected ErrOrderAlreadyAttached, got %v", err)
	}
}

func TestOccupancyLedgerReparent(t *testing.T) {
	ctx := context.Background()
	bungalows := NewBungalowRegistry()
	ledger := NewOccupancyLedger(bungalows)

	if err := ledger.Create(ctx, &occupation.Occupancy{ID: "o1", BungalowID: "b1", State: occupation.StateOccupied}); err != nil {
		t.Fatalf("create o1: %v", err)
	}
	if err := ledger.Create(ctx, &occupation.Occupancy{ID: "o2", BungalowID: "b2", State: occupation.StateOccupied}); err != nil {
		t.Fatalf("create o2: %v", err)
	}

	if err := ledger.Reparent(ctx, "o1", "b2"); !errors.Is(err, occupation.ErrTargetUnavailable) {
		t.Fatalf("expected ErrTargetUnavailable for taken target, got %v", err)
	}
	if err := ledger.Reparent(ctx, "o1", "b3"); err != nil {
		t.Fatalf("reparent to free unit: %v", err)
	}
	moved, err := ledger.ByBungalow(ctx, "b3")
	if err != nil || moved.ID != "o1" {
		t.Fatalf("expected o1 on b3, got %v (%v)", moved, err)
	}
	if _, err := ledger.ByBungalow(ctx, "b1"); !errors.Is(err, occupation.ErrOccupancyNotFound) {
		t.Fatalf("expected b1 vacated, got %v", err)
	}
}

func TestAuditLogAppendOrderAndCascade(t *testing.T) {
	ctx := context.Background()
	log := NewAuditLog()

	for _, id := range []string{"e1", "e2", "e3"} {
		entry := testEntry(id, "b1")
		if err := log.Append(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := log.Append(ctx, testEntry("other", "b2")); err != nil {
		t.Fatalf("append other: %v", err)
	}

	entries, err := log.ListForBungalow(ctx, "b1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != "e1" || entries[2].ID != "e3" {
		t.Fatalf("expected e1..e3 in append order, got %v", entries)
	}

	if err := log.DeleteForBungalow(ctx, "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	entries, err = log.ListForBungalow(ctx, "b1")
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected b1 log emptied, got %d", len(entries))
	}
	others, err := log.ListForBungalow(ctx, "b2")
	if err != nil || len(others) != 1 {
		t.Fatalf("other bungalow's log must survive, got %d (%v)", len(others), err)
	}
}
