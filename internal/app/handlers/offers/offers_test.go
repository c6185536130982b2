package offers

import (
	"context"
	"errors"
	"testing"

	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/infra/storage/memory"
)

func seedCategory(t *testing.T, factory memory.Factory) {
	t.Helper()
	err := factory.CategoryRepo.Save(context.Background(), &bungalow.Category{
		ID:               "cat-1",
		PartyID:          "party-1",
		Title:            "Standard",
		Capacity:         6,
		TicketCategoryID: "tc-1",
	})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
}

func TestOfferBungalow(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCategory(t, factory)

	handler := &OfferBungalowHandler{UoWFactory: factory}
	result, err := handler.Handle(ctx, OfferBungalowCommand{
		PartyID:            "party-1",
		Number:             12,
		CategoryID:         "cat-1",
		DistributesNetwork: true,
	})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if !result.Bungalow.Available() {
		t.Fatalf("offered unit must start available, got %q", result.Bungalow.OccupationState)
	}
	if result.Bungalow.Category.Title != "Standard" {
		t.Fatalf("category must be denormalized onto the unit, got %q", result.Bungalow.Category.Title)
	}

	stored, err := factory.BungalowRepo.ByNumber(ctx, "party-1", 12)
	if err != nil {
		t.Fatalf("lookup by number: %v", err)
	}
	if !stored.DistributesNetwork {
		t.Fatal("network flag must persist")
	}
}

func TestOfferBungalowUnknownCategory(t *testing.T) {
	handler := &OfferBungalowHandler{UoWFactory: memory.NewFactory()}
	_, err := handler.Handle(context.Background(), OfferBungalowCommand{
		PartyID:    "party-1",
		Number:     1,
		CategoryID: "missing",
	})
	if !errors.Is(err, bungalow.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestOfferBungalowDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCategory(t, factory)

	handler := &OfferBungalowHandler{UoWFactory: factory}
	cmd := OfferBungalowCommand{PartyID: "party-1", Number: 5, CategoryID: "cat-1"}
	if _, err := handler.Handle(ctx, cmd); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	if _, err := handler.Handle(ctx, cmd); !errors.Is(err, memory.ErrNumberTaken) {
		t.Fatalf("expected ErrNumberTaken, got %v", err)
	}
}

func TestOfferBungalowsBatch(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCategory(t, factory)

	handler := &OfferBungalowsHandler{UoWFactory: factory}
	result, err := handler.Handle(ctx, OfferBungalowsCommand{
		PartyID:    "party-1",
		Numbers:    []int{1, 2, 3},
		CategoryID: "cat-1",
	})
	if err != nil {
		t.Fatalf("batch offer: %v", err)
	}
	if len(result.Bungalows) != 3 {
		t.Fatalf("expected 3 units, got %d", len(result.Bungalows))
	}

	list, err := factory.BungalowRepo.ListForParty(ctx, "party-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 stored units, got %d", len(list))
	}
}

func TestWithdrawBungalow(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCategory(t, factory)

	offer := &OfferBungalowHandler{UoWFactory: factory}
	offered, err := offer.Handle(ctx, OfferBungalowCommand{PartyID: "party-1", Number: 1, CategoryID: "cat-1"})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	id := offered.Bungalow.ID

	entry := auditlog.BuildEntry("bungalow-reserved", id, nil)
	if err := factory.AuditLogRepo.Append(ctx, entry); err != nil {
		t.Fatalf("seed log entry: %v", err)
	}

	withdraw := &WithdrawBungalowHandler{UoWFactory: factory}
	if _, err := withdraw.Handle(ctx, WithdrawBungalowCommand{BungalowID: string(id)}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if _, err := factory.BungalowRepo.ByID(ctx, id); !errors.Is(err, bungalow.ErrNotFound) {
		t.Fatalf("expected unit gone, got %v", err)
	}
	entries, err := factory.AuditLogRepo.ListForBungalow(ctx, id)
	if err != nil {
		t.Fatalf("list log: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("withdraw must cascade-delete log entries, got %d", len(entries))
	}
}

func TestWithdrawReservedBungalow(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCategory(t, factory)

	offer := &OfferBungalowHandler{UoWFactory: factory}
	offered, err := offer.Handle(ctx, OfferBungalowCommand{PartyID: "party-1", Number: 1, CategoryID: "cat-1"})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if err := factory.BungalowRepo.SetState(ctx, offered.Bungalow.ID, bungalow.StateReserved); err != nil {
		t.Fatalf("set state: %v", err)
	}

	withdraw := &WithdrawBungalowHandler{UoWFactory: factory}
	_, err = withdraw.Handle(ctx, WithdrawBungalowCommand{BungalowID: string(offered.Bungalow.ID)})
	if !errors.Is(err, bungalow.ErrStillOccupied) {
		t.Fatalf("expected ErrStillOccupied, got %v", err)
	}
	if _, err := factory.BungalowRepo.ByID(ctx, offered.Bungalow.ID); err != nil {
		t.Fatalf("reserved unit must survive the withdraw attempt: %v", err)
	}
}

func TestSetDistributesNetwork(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedCategory(t, factory)

	offer := &OfferBungalowHandler{UoWFactory: factory}
	offered, err := offer.Handle(ctx, OfferBungalowCommand{PartyID: "party-1", Number: 1, CategoryID: "cat-1"})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}

	set := &SetDistributesNetworkHandler{UoWFactory: factory}
	if _, err := set.Handle(ctx, SetDistributesNetworkCommand{BungalowID: string(offered.Bungalow.ID), Flag: true}); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	stored, err := factory.BungalowRepo.ByID(ctx, offered.Bungalow.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !stored.DistributesNetwork {
		t.Fatal("expected flag set")
	}
}
