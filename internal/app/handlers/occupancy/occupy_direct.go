package occupancy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const occupyDirectKey = "occupancy.occupy_without_reservation"

// OccupyWithoutReservationCommand occupies an available bungalow directly,
// used when a ticket bundle is sold without a prior browse-and-reserve step.
// The bundle's owner becomes the occupier and manager.
type OccupyWithoutReservationCommand struct {
	BungalowID      string
	TicketBundleID  string
	InitiatorID     string
	OrderNumber     string
	IdempotencyKeyV string
}

func (c OccupyWithoutReservationCommand) Key() string { return occupyDirectKey }

func (c OccupyWithoutReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c OccupyWithoutReservationCommand) ResultPrototype() any { return &OccupyResult{} }

type OccupyWithoutReservationHandler struct {
	UoWFactory uow.UoWFactory
	Ticketing  policies.TicketingPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *OccupyWithoutReservationHandler) Handle(ctx context.Context, cmd OccupyWithoutReservationCommand) (*OccupyResult, error) {
	if h.Ticketing == nil {
		return nil, ErrTicketingUnavailable
	}
	var result *OccupyResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bungalows().ByID(ctx, bungalow.BungalowID(cmd.BungalowID))
		if err != nil {
			return err
		}
		if !b.Available() {
			return bungalow.ErrNotAvailable
		}

		bundle, err := h.Ticketing.GetBundle(ctx, cmd.TicketBundleID)
		if err != nil {
			return err
		}
		if bundle.TicketCategoryID != b.Category.TicketCategoryID {
			return occupation.ErrCategoryMismatch
		}

		orderNumber := cmd.OrderNumber
		if orderNumber == "" {
			orderNumber = bundle.OrderNumber
		}
		occ := occupation.NewDirectOccupancy(
			occupation.OccupancyID(uuid.NewString()), b, bundle.OwnerID, orderNumber, bundle.ID,
		)
		if err := unit.Occupancies().Create(ctx, occ); err != nil {
			return err
		}
		if err := unit.Bungalows().SetState(ctx, b.ID, bungalow.StateOccupied); err != nil {
			return err
		}

		initiator := cmd.InitiatorID
		if initiator == "" {
			initiator = bundle.OwnerID
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
			OccupierID:     bundle.OwnerID,
			InitiatorID:    initiator,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &OccupyResult{
			OccupancyID: string(occ.ID),
			BungalowID:  string(b.ID),
			OccupierID:  bundle.OwnerID,
			Event:       event,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[OccupyWithoutReservationCommand, *OccupyResult] = (*OccupyWithoutReservationHandler)(nil)
