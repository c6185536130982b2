package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"

	"partylodge/internal/app/commands"
	occupancyhandlers "partylodge/internal/app/handlers/occupancy"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
	"partylodge/internal/infra/storage/memory"
)

type recordingBus struct {
	dispatched []commands.Command
}

func (b *recordingBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.dispatched = append(b.dispatched, cmd)
	return nil, nil
}

type fakeInbox struct {
	seen map[string]bool
}

func (i *fakeInbox) Seen(ctx context.Context, eventID string) (bool, error) {
	return i.seen[eventID], nil
}

func seedReservedOrder(t *testing.T, factory memory.Factory) {
	t.Helper()
	ctx := context.Background()
	err := factory.BungalowRepo.Save(ctx, &bungalow.Bungalow{
		ID:              "b1",
		PartyID:         "party-1",
		Number:          1,
		OccupationState: bungalow.StateReserved,
	})
	if err != nil {
		t.Fatalf("seed bungalow: %v", err)
	}
	err = factory.ReservationRepo.Create(ctx, &occupation.Reservation{
		ID:          "r1",
		BungalowID:  "b1",
		OrderNumber: "ORDER-1",
	})
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	err = factory.OccupancyRepo.Create(ctx, &occupation.Occupancy{
		ID:          "o1",
		BungalowID:  "b1",
		OrderNumber: "ORDER-1",
		State:       occupation.StateReserved,
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "order.events.v1", Value: []byte(value)}
}

func TestOrderPaidDispatchesOccupation(t *testing.T) {
	factory := memory.NewFactory()
	seedReservedOrder(t, factory)
	bus := &recordingBus{}
	h := &OrderEventHandler{Bus: bus, UoWFactory: factory}

	err := h.Handle(context.Background(), message(
		`{"id":"evt-1","type":"order.paid.v1","data":{"order_number":"ORDER-1","ticket_bundle_id":"bundle-1","initiator_id":"admin-1"}}`,
	))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(bus.dispatched) != 1 {
		t.Fatalf("expected one command, got %d", len(bus.dispatched))
	}
	cmd, ok := bus.dispatched[0].(occupancyhandlers.OccupyFromReservationCommand)
	if !ok {
		t.Fatalf("expected occupy command, got %T", bus.dispatched[0])
	}
	if cmd.ReservationID != "r1" || cmd.OccupancyID != "o1" {
		t.Fatalf("expected reservation and occupancy resolved by order number, got %+v", cmd)
	}
	if cmd.TicketBundleID != "bundle-1" {
		t.Fatalf("expected bundle from event, got %q", cmd.TicketBundleID)
	}
	if cmd.IdempotencyKeyV != "order-paid:ORDER-1" {
		t.Fatalf("expected order-scoped idempotency key, got %q", cmd.IdempotencyKeyV)
	}
}

func TestOrderPaidAlreadyOccupied(t *testing.T) {
	factory := memory.NewFactory()
	ctx := context.Background()
	err := factory.OccupancyRepo.Create(ctx, &occupation.Occupancy{
		ID:          "o1",
		BungalowID:  "b1",
		OrderNumber: "ORDER-1",
		State:       occupation.StateOccupied,
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}
	bus := &recordingBus{}
	h := &OrderEventHandler{Bus: bus, UoWFactory: factory}

	err = h.Handle(ctx, message(`{"type":"order.paid.v1","data":{"order_number":"ORDER-1"}}`))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(bus.dispatched) != 0 {
		t.Fatalf("redelivered paid event for an occupied unit must be a no-op, got %v", bus.dispatched)
	}
}

func TestOrderPaidUnknownOrderAcked(t *testing.T) {
	bus := &recordingBus{}
	h := &OrderEventHandler{Bus: bus, UoWFactory: memory.NewFactory()}

	err := h.Handle(context.Background(), message(`{"type":"order.paid.v1","data":{"order_number":"NOPE"}}`))
	if err != nil {
		t.Fatalf("unknown order must be acked, got %v", err)
	}
	if len(bus.dispatched) != 0 {
		t.Fatal("unknown order must not dispatch")
	}
}

func TestOrderCanceledDispatchesRelease(t *testing.T) {
	factory := memory.NewFactory()
	seedReservedOrder(t, factory)
	bus := &recordingBus{}
	h := &OrderEventHandler{Bus: bus, UoWFactory: factory}

	err := h.Handle(context.Background(), message(
		`{"type":"order.canceled.v1","data":{"order_number":"ORDER-1","initiator_id":"admin-1"}}`,
	))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(bus.dispatched) != 1 {
		t.Fatalf("expected one command, got %d", len(bus.dispatched))
	}
	cmd, ok := bus.dispatched[0].(occupancyhandlers.ReleaseCommand)
	if !ok {
		t.Fatalf("expected release command, got %T", bus.dispatched[0])
	}
	if cmd.OccupancyID != "o1" {
		t.Fatalf("expected occupancy resolved by order number, got %q", cmd.OccupancyID)
	}
	if cmd.IdempotencyKeyV != "order-canceled:ORDER-1" {
		t.Fatalf("expected order-scoped idempotency key, got %q", cmd.IdempotencyKeyV)
	}
}

func TestUnknownEventTypeAcked(t *testing.T) {
	bus := &recordingBus{}
	h := &OrderEventHandler{Bus: bus, UoWFactory: memory.NewFactory()}

	if err := h.Handle(context.Background(), message(`{"type":"order.refund_requested.v1","data":{}}`)); err != nil {
		t.Fatalf("unknown type must be acked, got %v", err)
	}
	if err := h.Handle(context.Background(), message(`not json`)); err != nil {
		t.Fatalf("undecodable message must be acked, got %v", err)
	}
	if len(bus.dispatched) != 0 {
		t.Fatal("nothing may be dispatched for skipped messages")
	}
}

func TestInboxDeduplicates(t *testing.T) {
	factory := memory.NewFactory()
	seedReservedOrder(t, factory)
	bus := &recordingBus{}
	inbox := &fakeInbox{seen: map[string]bool{"evt-1": true}}
	h := &OrderEventHandler{Bus: bus, UoWFactory: factory, Inbox: inbox}

	err := h.Handle(context.Background(), message(
		`{"id":"evt-1","type":"order.paid.v1","data":{"order_number":"ORDER-1"}}`,
	))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(bus.dispatched) != 0 {
		t.Fatal("already seen event must not dispatch")
	}
}
