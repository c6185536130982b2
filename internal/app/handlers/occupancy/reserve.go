package occupancy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const reserveKey = "occupancy.reserve"

// ReserveCommand places a temporary hold on an available bungalow for the
// occupier, pending order placement and payment.
type ReserveCommand struct {
	BungalowID string
	OccupierID string
}

func (c ReserveCommand) Key() string { return reserveKey }

type ReserveResult struct {
	ReservationID string `json:"reservation_id"`
	OccupancyID   string `json:"occupancy_id"`
	Event         bungalow.BungalowReservedEvent
}

type ReserveHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ReserveHandler) Handle(ctx context.Context, cmd ReserveCommand) (*ReserveResult, error) {
	var result *ReserveResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bungalows().ByID(ctx, bungalow.BungalowID(cmd.BungalowID))
		if err != nil {
			return err
		}
		if !b.Available() {
			return bungalow.ErrNotAvailable
		}

		if err := unit.Bungalows().SetState(ctx, b.ID, bungalow.StateReserved); err != nil {
			return err
		}

		reservation := &occupation.Reservation{
			ID:           occupation.ReservationID(uuid.NewString()),
			BungalowID:   b.ID,
			ReservedByID: cmd.OccupierID,
		}
		if err := unit.Reservations().Create(ctx, reservation); err != nil {
			return err
		}

		occ := occupation.NewReservationOccupancy(occupation.OccupancyID(uuid.NewString()), b, cmd.OccupierID)
		if err := unit.Occupancies().Create(ctx, occ); err != nil {
			return err
		}

		entry := auditlog.BuildEntry("bungalow-reserved", b.ID, auditlog.EntryData{
			"initiator_id": cmd.OccupierID,
		})
		if err := unit.AuditLog().Append(ctx, entry); err != nil {
			return err
		}

		event := bungalow.BungalowReservedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			OccupierID:     cmd.OccupierID,
			InitiatorID:    cmd.OccupierID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &ReserveResult{
			ReservationID: string(reservation.ID),
			OccupancyID:   string(occ.ID),
			Event:         event,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[ReserveCommand, *ReserveResult] = (*ReserveHandler)(nil)
