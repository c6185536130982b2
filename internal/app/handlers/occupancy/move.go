package occupancy

import (
	"context"
	"strconv"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const moveKey = "occupancy.move"

// MoveCommand relocates an occupancy to a capacity- and ticket-category-
// compatible bungalow. Both bungalow rows are read within the transaction so
// the target's availability is verified against the transaction's view.
type MoveCommand struct {
	OccupancyID      string
	TargetBungalowID string
	InitiatorID      string
}

func (c MoveCommand) Key() string { return moveKey }

type MoveResult struct {
	Event bungalow.BungalowOccupancyMovedEvent
}

type MoveHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *MoveHandler) Handle(ctx context.Context, cmd MoveCommand) (*MoveResult, error) {
	var result *MoveResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		source, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		target, err := unit.Bungalows().ByID(ctx, bungalow.BungalowID(cmd.TargetBungalowID))
		if err != nil {
			return err
		}

		if err := occupation.ValidateMove(occ, source, target); err != nil {
			return err
		}

		if err := unit.Bungalows().SetState(ctx, target.ID, source.OccupationState); err != nil {
			return err
		}
		if err := unit.Bungalows().SetState(ctx, source.ID, bungalow.StateAvailable); err != nil {
			return err
		}
		if err := unit.Occupancies().Reparent(ctx, occ.ID, target.ID); err != nil {
			return err
		}
		// A reserved occupancy always has a reservation row; it moves too,
		// otherwise the vacated bungalow would still hold it.
		if occ.State == occupation.StateReserved {
			res, err := unit.Reservations().ByBungalow(ctx, source.ID)
			if err != nil {
				return err
			}
			res.BungalowID = target.ID
			if err := unit.Reservations().Save(ctx, res); err != nil {
				return err
			}
		}

		awayEntry := auditlog.BuildEntry("occupancy-moved-away", source.ID, auditlog.EntryData{
			"initiator_id":           cmd.InitiatorID,
			"target_bungalow_id":     string(target.ID),
			"target_bungalow_number": strconv.Itoa(target.Number),
		})
		if err := unit.AuditLog().Append(ctx, awayEntry); err != nil {
			return err
		}
		hereEntry := auditlog.BuildEntry("occupancy-moved-here", target.ID, auditlog.EntryData{
			"initiator_id":           cmd.InitiatorID,
			"source_bungalow_id":     string(source.ID),
			"source_bungalow_number": strconv.Itoa(source.Number),
		})
		if err := unit.AuditLog().Append(ctx, hereEntry); err != nil {
			return err
		}

		event := bungalow.BungalowOccupancyMovedEvent{
			SourceBungalowID:     source.ID,
			SourceBungalowNumber: source.Number,
			TargetBungalowID:     target.ID,
			TargetBungalowNumber: target.Number,
			InitiatorID:          cmd.InitiatorID,
			At:                   time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &MoveResult{Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[MoveCommand, *MoveResult] = (*MoveHandler)(nil)
