package occupancy

import (
	"context"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const attachOrderKey = "occupancy.attach_order"

// AttachOrderCommand links a freshly placed commerce order to the reservation
// and its occupancy. Attaching twice fails with OrderAlreadyAttached.
type AttachOrderCommand struct {
	ReservationID   string
	OccupancyID     string
	OrderNumber     string
	OrdererID       string
	IdempotencyKeyV string
}

func (c AttachOrderCommand) Key() string { return attachOrderKey }

func (c AttachOrderCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c AttachOrderCommand) ResultPrototype() any { return &AttachOrderResult{} }

type AttachOrderResult struct {
	OrderNumber string `json:"order_number"`
	Event       bungalow.BungalowOrderPlacedEvent
}

type AttachOrderHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *AttachOrderHandler) Handle(ctx context.Context, cmd AttachOrderCommand) (*AttachOrderResult, error) {
	var result *AttachOrderResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		reservation, err := unit.Reservations().ByID(ctx, occupation.ReservationID(cmd.ReservationID))
		if err != nil {
			return err
		}
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}

		if err := reservation.AttachOrder(cmd.OrderNumber); err != nil {
			return err
		}
		if err := occ.AttachOrder(cmd.OrderNumber); err != nil {
			return err
		}

		if err := unit.Reservations().Save(ctx, reservation); err != nil {
			return err
		}
		if err := unit.Occupancies().Save(ctx, occ); err != nil {
			return err
		}

		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}

		entry := auditlog.BuildEntry("order-placed", b.ID, auditlog.EntryData{
			"initiator_id": cmd.OrdererID,
			"order_number": cmd.OrderNumber,
		})
		if err := unit.AuditLog().Append(ctx, entry); err != nil {
			return err
		}

		event := bungalow.BungalowOrderPlacedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			OrderNumber:    cmd.OrderNumber,
			OrdererID:      cmd.OrdererID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &AttachOrderResult{OrderNumber: cmd.OrderNumber, Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[AttachOrderCommand, *AttachOrderResult] = (*AttachOrderHandler)(nil)
