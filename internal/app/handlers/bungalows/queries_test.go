package bungalows

import (
	"context"
	"errors"
	"testing"
	"time"

	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
	"partylodge/internal/infra/storage/memory"
)

func seedBungalow(t *testing.T, factory memory.Factory, id string, number int, categoryID string, title string, state bungalow.OccupationState) {
	t.Helper()
	err := factory.BungalowRepo.Save(context.Background(), &bungalow.Bungalow{
		ID:              bungalow.BungalowID(id),
		PartyID:         "party-1",
		Number:          number,
		CategoryID:      bungalow.CategoryID(categoryID),
		OccupationState: state,
		Category: bungalow.Category{
			ID:    bungalow.CategoryID(categoryID),
			Title: title,
		},
	})
	if err != nil {
		t.Fatalf("seed bungalow %s: %v", id, err)
	}
}

func TestListForPartyOrdersByNumber(t *testing.T) {
	factory := memory.NewFactory()
	seedBungalow(t, factory, "b3", 30, "cat-1", "Standard", bungalow.StateAvailable)
	seedBungalow(t, factory, "b1", 10, "cat-1", "Standard", bungalow.StateAvailable)
	seedBungalow(t, factory, "b2", 20, "cat-1", "Standard", bungalow.StateAvailable)

	handler := &ListForPartyHandler{UoWFactory: factory}
	list, err := handler.Handle(context.Background(), ListForPartyQuery{PartyID: "party-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 units, got %d", len(list))
	}
	for i, want := range []int{10, 20, 30} {
		if list[i].Number != want {
			t.Fatalf("position %d: expected number %d, got %d", i, want, list[i].Number)
		}
	}
}

func TestViewByNumber(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedBungalow(t, factory, "b1", 7, "cat-1", "Standard", bungalow.StateOccupied)

	err := factory.OccupancyRepo.Create(ctx, &occupation.Occupancy{
		ID:           "o1",
		BungalowID:   "b1",
		OccupiedByID: "user-1",
		State:        occupation.StateOccupied,
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}

	handler := &ViewByNumberHandler{UoWFactory: factory}
	view, err := handler.Handle(ctx, ViewByNumberQuery{PartyID: "party-1", Number: 7})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Bungalow.ID != "b1" {
		t.Fatalf("expected b1, got %q", view.Bungalow.ID)
	}
	if view.Occupancy == nil || view.Occupancy.ID != "o1" {
		t.Fatalf("expected occupancy o1, got %v", view.Occupancy)
	}

	if _, err := handler.Handle(ctx, ViewByNumberQuery{PartyID: "party-1", Number: 99}); !errors.Is(err, bungalow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown number, got %v", err)
	}
}

func TestViewByNumberWithoutOccupancy(t *testing.T) {
	factory := memory.NewFactory()
	seedBungalow(t, factory, "b1", 7, "cat-1", "Standard", bungalow.StateAvailable)

	handler := &ViewByNumberHandler{UoWFactory: factory}
	view, err := handler.Handle(context.Background(), ViewByNumberQuery{PartyID: "party-1", Number: 7})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if view.Occupancy != nil {
		t.Fatalf("expected no occupancy on an available unit, got %v", view.Occupancy)
	}
}

func TestAuditLogFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()

	base := time.Now().UTC()
	entries := []auditlog.Entry{
		{ID: "e2", OccurredAt: base.Add(time.Minute), EventType: "bungalow-released", BungalowID: "b1"},
		{ID: "e1", OccurredAt: base, EventType: "bungalow-reserved", BungalowID: "b1"},
		{ID: "e3", OccurredAt: base.Add(2 * time.Minute), EventType: "bungalow-reserved", BungalowID: "b1"},
	}
	for _, e := range entries {
		if err := factory.AuditLogRepo.Append(ctx, e); err != nil {
			t.Fatalf("seed entry %s: %v", e.ID, err)
		}
	}

	handler := &AuditLogHandler{UoWFactory: factory}
	all, err := handler.Handle(ctx, AuditLogQuery{BungalowID: "b1"})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 || all[0].ID != "e1" || all[2].ID != "e3" {
		t.Fatalf("expected chronological order e1..e3, got %v", all)
	}

	filtered, err := handler.Handle(ctx, AuditLogQuery{BungalowID: "b1", EventType: "bungalow-reserved"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 reserved entries, got %d", len(filtered))
	}
}

func TestOccupationStats(t *testing.T) {
	factory := memory.NewFactory()
	seedBungalow(t, factory, "b1", 1, "cat-a", "Alpha", bungalow.StateAvailable)
	seedBungalow(t, factory, "b2", 2, "cat-a", "Alpha", bungalow.StateReserved)
	seedBungalow(t, factory, "b3", 3, "cat-b", "Beta", bungalow.StateOccupied)
	seedBungalow(t, factory, "b4", 4, "cat-b", "Beta", bungalow.StateOccupied)

	handler := &OccupationStatsHandler{UoWFactory: factory}
	stats, err := handler.Handle(context.Background(), OccupationStatsQuery{PartyID: "party-1"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.Totals.Available != 1 || stats.Totals.Reserved != 1 || stats.Totals.Occupied != 2 {
		t.Fatalf("unexpected totals: %+v", stats.Totals)
	}
	if stats.Totals.Total() != 4 {
		t.Fatalf("expected 4 units total, got %d", stats.Totals.Total())
	}
	if len(stats.Categories) != 2 {
		t.Fatalf("expected 2 category summaries, got %d", len(stats.Categories))
	}
	if stats.Categories[0].Category.Title != "Alpha" || stats.Categories[1].Category.Title != "Beta" {
		t.Fatalf("expected categories ordered by title, got %v", stats.Categories)
	}
	if stats.Categories[1].Totals.Occupied != 2 {
		t.Fatalf("expected 2 occupied in Beta, got %d", stats.Categories[1].Totals.Occupied)
	}
}

func TestHasUserOccupied(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedBungalow(t, factory, "b1", 1, "cat-1", "Standard", bungalow.StateOccupied)

	err := factory.OccupancyRepo.Create(ctx, &occupation.Occupancy{
		ID:           "o1",
		BungalowID:   "b1",
		OccupiedByID: "user-1",
		ManagerID:    "user-1",
		State:        occupation.StateOccupied,
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}

	handler := &HasUserOccupiedHandler{UoWFactory: factory}
	occupied, err := handler.Handle(ctx, HasUserOccupiedQuery{PartyID: "party-1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("query manager: %v", err)
	}
	if !occupied {
		t.Fatal("expected manager to count as occupied")
	}

	occupied, err = handler.Handle(ctx, HasUserOccupiedQuery{PartyID: "party-1", UserID: "user-2"})
	if err != nil {
		t.Fatalf("query stranger: %v", err)
	}
	if occupied {
		t.Fatal("expected non-manager to report false")
	}
}

func TestOccupancyForTicketBundle(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()

	err := factory.OccupancyRepo.Create(ctx, &occupation.Occupancy{
		ID:             "o1",
		BungalowID:     "b1",
		TicketBundleID: "bundle-1",
		State:          occupation.StateOccupied,
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}

	handler := &OccupancyForTicketBundleHandler{UoWFactory: factory}
	occ, err := handler.Handle(ctx, OccupancyForTicketBundleQuery{TicketBundleID: "bundle-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if occ.ID != "o1" {
		t.Fatalf("expected o1, got %q", occ.ID)
	}

	if _, err := handler.Handle(ctx, OccupancyForTicketBundleQuery{TicketBundleID: "missing"}); !errors.Is(err, occupation.ErrOccupancyNotFound) {
		t.Fatalf("expected ErrOccupancyNotFound, got %v", err)
	}
}
