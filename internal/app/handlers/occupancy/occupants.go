package occupancy

import (
	"context"
	"sort"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const addOccupantKey = "occupancy.add_occupant"

// AddOccupantCommand assigns a user to one of the occupancy's ticket slots.
// The slot assignment lives in the ticketing subsystem; only the event goes
// through the outbox here.
type AddOccupantCommand struct {
	OccupancyID string
	TicketID    string
	OccupantID  string
	InitiatorID string
}

func (c AddOccupantCommand) Key() string { return addOccupantKey }

type AddOccupantResult struct {
	Event bungalow.BungalowOccupantAddedEvent
}

type AddOccupantHandler struct {
	UoWFactory uow.UoWFactory
	Ticketing  policies.TicketingPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *AddOccupantHandler) Handle(ctx context.Context, cmd AddOccupantCommand) (*AddOccupantResult, error) {
	if h.Ticketing == nil {
		return nil, ErrTicketingUnavailable
	}
	var result *AddOccupantResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		if occ.State != occupation.StateOccupied {
			return occupation.ErrNotOccupied
		}
		if err := h.Ticketing.AppointUser(ctx, cmd.TicketID, cmd.OccupantID, cmd.InitiatorID); err != nil {
			return err
		}

		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		event := bungalow.BungalowOccupantAddedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			OccupantID:     cmd.OccupantID,
			InitiatorID:    cmd.InitiatorID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &AddOccupantResult{Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[AddOccupantCommand, *AddOccupantResult] = (*AddOccupantHandler)(nil)

const removeOccupantKey = "occupancy.remove_occupant"

// RemoveOccupantCommand withdraws a user from a ticket slot.
type RemoveOccupantCommand struct {
	OccupancyID string
	TicketID    string
	OccupantID  string
	InitiatorID string
}

func (c RemoveOccupantCommand) Key() string { return removeOccupantKey }

type RemoveOccupantResult struct {
	Event bungalow.BungalowOccupantRemovedEvent
}

type RemoveOccupantHandler struct {
	UoWFactory uow.UoWFactory
	Ticketing  policies.TicketingPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RemoveOccupantHandler) Handle(ctx context.Context, cmd RemoveOccupantCommand) (*RemoveOccupantResult, error) {
	if h.Ticketing == nil {
		return nil, ErrTicketingUnavailable
	}
	var result *RemoveOccupantResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		if err := h.Ticketing.WithdrawUser(ctx, cmd.TicketID, cmd.InitiatorID); err != nil {
			return err
		}

		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		event := bungalow.BungalowOccupantRemovedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			OccupantID:     cmd.OccupantID,
			InitiatorID:    cmd.InitiatorID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &RemoveOccupantResult{Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[RemoveOccupantCommand, *RemoveOccupantResult] = (*RemoveOccupantHandler)(nil)

// OccupantSlots lists the occupancy's ticket slots with their current users,
// ordered by ticket creation time.
func OccupantSlots(ctx context.Context, ticketing policies.TicketingPort, occ *occupation.Occupancy) ([]occupation.OccupantSlot, error) {
	if occ.TicketBundleID == "" {
		return nil, occupation.ErrNoTicketBundle
	}
	bundle, err := ticketing.GetBundle(ctx, occ.TicketBundleID)
	if err != nil {
		return nil, err
	}
	slots := make([]occupation.OccupantSlot, 0, len(bundle.Tickets))
	for _, ticket := range bundle.Tickets {
		if ticket.Revoked {
			continue
		}
		slots = append(slots, occupation.OccupantSlot{
			TicketID:   ticket.ID,
			OccupantID: ticket.UsedByID,
			CreatedAt:  ticket.CreatedAt,
		})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].CreatedAt.Before(slots[j].CreatedAt) })
	return slots, nil
}

// AssignFirstTicket hands the bundle's earliest ticket to the main occupant
// after a successful occupation, unless they already use a ticket for the
// party. Best-effort, runs outside the occupation transaction.
func AssignFirstTicket(ctx context.Context, ticketing policies.TicketingPort, partyID, bundleID, occupierID string) error {
	uses, err := ticketing.UsesAnyTicketForParty(ctx, occupierID, partyID)
	if err != nil {
		return err
	}
	if uses {
		return nil
	}
	bundle, err := ticketing.GetBundle(ctx, bundleID)
	if err != nil {
		return err
	}
	var first *policies.Ticket
	for i := range bundle.Tickets {
		t := &bundle.Tickets[i]
		if t.Revoked {
			continue
		}
		if first == nil || t.CreatedAt.Before(first.CreatedAt) {
			first = t
		}
	}
	if first == nil {
		return nil
	}
	return ticketing.AppointUser(ctx, first.ID, occupierID, occupierID)
}
