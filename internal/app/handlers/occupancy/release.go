package occupancy

import (
	"context"
	"errors"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const releaseKey = "occupancy.release"

// ReleaseCommand frees a bungalow from its occupancy so it becomes available
// again, e.g. after an order cancellation.
type ReleaseCommand struct {
	OccupancyID     string
	InitiatorID     string
	IdempotencyKeyV string
}

func (c ReleaseCommand) Key() string { return releaseKey }

func (c ReleaseCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ReleaseCommand) ResultPrototype() any { return &ReleaseResult{} }

type ReleaseResult struct {
	BungalowID string `json:"bungalow_id"`
	Event      bungalow.BungalowReleasedEvent
}

type ReleaseHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ReleaseHandler) Handle(ctx context.Context, cmd ReleaseCommand) (*ReleaseResult, error) {
	var result *ReleaseResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		if !b.ReservedOrOccupied() {
			return occupation.ErrNotReservedOrOccupied
		}

		reservation, err := unit.Reservations().ByBungalow(ctx, b.ID)
		switch {
		case err == nil:
			if err := unit.Reservations().Delete(ctx, reservation.ID); err != nil {
				return err
			}
		case errors.Is(err, occupation.ErrReservationNotFound):
			// No reservation to clean up; the bungalow was fully occupied.
		default:
			return err
		}

		if err := unit.Occupancies().Delete(ctx, occ.ID); err != nil {
			return err
		}
		if err := unit.Bungalows().SetState(ctx, b.ID, bungalow.StateAvailable); err != nil {
			return err
		}

		data := auditlog.EntryData{}
		if cmd.InitiatorID != "" {
			data["initiator_id"] = cmd.InitiatorID
		}
		entry := auditlog.BuildEntry("bungalow-released", b.ID, data)
		if err := unit.AuditLog().Append(ctx, entry); err != nil {
			return err
		}

		event := bungalow.BungalowReleasedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			InitiatorID:    cmd.InitiatorID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &ReleaseResult{BungalowID: string(b.ID), Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[ReleaseCommand, *ReleaseResult] = (*ReleaseHandler)(nil)
