package occupancy

import (
	"context"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const occupyFromReservationKey = "occupancy.occupy_from_reservation"

// OccupyFromReservationCommand converts a paid reservation into a confirmed
// occupancy, consuming the reservation and linking the ticket bundle.
type OccupyFromReservationCommand struct {
	ReservationID   string
	OccupancyID     string
	TicketBundleID  string
	InitiatorID     string
	IdempotencyKeyV string
}

func (c OccupyFromReservationCommand) Key() string { return occupyFromReservationKey }

func (c OccupyFromReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c OccupyFromReservationCommand) ResultPrototype() any { return &OccupyResult{} }

type OccupyResult struct {
	OccupancyID string `json:"occupancy_id"`
	BungalowID  string `json:"bungalow_id"`
	OccupierID  string `json:"occupier_id"`
	Event       bungalow.BungalowOccupiedEvent
}

type OccupyFromReservationHandler struct {
	UoWFactory uow.UoWFactory
	Ticketing  policies.TicketingPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *OccupyFromReservationHandler) Handle(ctx context.Context, cmd OccupyFromReservationCommand) (*OccupyResult, error) {
	var result *OccupyResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		reservation, err := unit.Reservations().ByID(ctx, occupation.ReservationID(cmd.ReservationID))
		if err != nil {
			return err
		}
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}

		if h.Ticketing != nil {
			bundle, err := h.Ticketing.GetBundle(ctx, cmd.TicketBundleID)
			if err != nil {
				return err
			}
			if bundle.TicketCategoryID != b.Category.TicketCategoryID {
				return occupation.ErrCategoryMismatch
			}
		}

		if err := occ.Occupy(cmd.TicketBundleID); err != nil {
			return err
		}

		if err := unit.Reservations().Delete(ctx, reservation.ID); err != nil {
			return err
		}
		if err := unit.Occupancies().Save(ctx, occ); err != nil {
			return err
		}
		if err := unit.Bungalows().SetState(ctx, b.ID, bungalow.StateOccupied); err != nil {
			return err
		}

		initiator := cmd.InitiatorID
		if initiator == "" {
			initiator = occ.OccupiedByID
		}
		entry := auditlog.BuildEntry("bungalow-occupied", b.ID, auditlog.EntryData{
			"initiator_id": initiator,
		})
		if err := unit.AuditLog().Append(ctx, entry); err != nil {
			return err
		}

		event := bungalow.BungalowOccupiedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			OccupierID:     occ.OccupiedByID,
			InitiatorID:    initiator,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &OccupyResult{
			OccupancyID: string(occ.ID),
			BungalowID:  string(b.ID),
			OccupierID:  occ.OccupiedByID,
			Event:       event,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[OccupyFromReservationCommand, *OccupyResult] = (*OccupyFromReservationHandler)(nil)
