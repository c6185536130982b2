package occupancy

import (
	"context"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const updateDescriptionKey = "occupancy.update_description"

// UpdateDescriptionCommand sets the occupancy's public title and description.
// Callers verify that the initiator manages the occupancy before dispatching.
type UpdateDescriptionCommand struct {
	OccupancyID string
	Title       string
	Description string
	InitiatorID string
}

func (c UpdateDescriptionCommand) Key() string { return updateDescriptionKey }

type UpdateDescriptionResult struct {
	Event bungalow.BungalowOccupancyDescriptionUpdatedEvent
}

type UpdateDescriptionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UpdateDescriptionHandler) Handle(ctx context.Context, cmd UpdateDescriptionCommand) (*UpdateDescriptionResult, error) {
	var result *UpdateDescriptionResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		occ.SetDescription(cmd.Title, cmd.Description)
		if err := unit.Occupancies().Save(ctx, occ); err != nil {
			return err
		}

		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		event := bungalow.BungalowOccupancyDescriptionUpdatedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			InitiatorID:    cmd.InitiatorID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &UpdateDescriptionResult{Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[UpdateDescriptionCommand, *UpdateDescriptionResult] = (*UpdateDescriptionHandler)(nil)
