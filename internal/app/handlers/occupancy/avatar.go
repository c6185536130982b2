package occupancy

import (
	"context"
	"io"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
	"partylodge/internal/app/policies"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

const updateAvatarKey = "occupancy.update_avatar"

// UpdateAvatarCommand stores a new avatar image for the occupancy and records
// its reference. The image is written to object storage before the ledger
// transaction; a storage failure surfaces unchanged and no ledger mutation
// happens.
type UpdateAvatarCommand struct {
	OccupancyID string
	InitiatorID string
	Image       io.Reader
}

func (c UpdateAvatarCommand) Key() string { return updateAvatarKey }

type UpdateAvatarResult struct {
	AvatarRef string
	Event     bungalow.BungalowOccupancyAvatarUpdatedEvent
}

type UpdateAvatarHandler struct {
	UoWFactory uow.UoWFactory
	Avatars    policies.AvatarPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UpdateAvatarHandler) Handle(ctx context.Context, cmd UpdateAvatarCommand) (*UpdateAvatarResult, error) {
	ref, err := h.Avatars.Store(ctx, cmd.OccupancyID, cmd.InitiatorID, cmd.Image)
	if err != nil {
		return nil, err
	}

	var result *UpdateAvatarResult
	err = runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		occ.AvatarRef = ref
		if err := unit.Occupancies().Save(ctx, occ); err != nil {
			return err
		}

		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		event := bungalow.BungalowOccupancyAvatarUpdatedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			InitiatorID:    cmd.InitiatorID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &UpdateAvatarResult{AvatarRef: ref, Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[UpdateAvatarCommand, *UpdateAvatarResult] = (*UpdateAvatarHandler)(nil)

const removeAvatarKey = "occupancy.remove_avatar"

// RemoveAvatarCommand clears the avatar reference. The stored object is left
// behind; object storage cleanup is a retention concern, not a ledger one.
type RemoveAvatarCommand struct {
	OccupancyID string
	InitiatorID string
}

func (c RemoveAvatarCommand) Key() string { return removeAvatarKey }

type RemoveAvatarResult struct {
	Event bungalow.BungalowOccupancyAvatarUpdatedEvent
}

type RemoveAvatarHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RemoveAvatarHandler) Handle(ctx context.Context, cmd RemoveAvatarCommand) (*RemoveAvatarResult, error) {
	var result *RemoveAvatarResult
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		occ.AvatarRef = ""
		if err := unit.Occupancies().Save(ctx, occ); err != nil {
			return err
		}

		b, err := unit.Bungalows().ByID(ctx, occ.BungalowID)
		if err != nil {
			return err
		}
		event := bungalow.BungalowOccupancyAvatarUpdatedEvent{
			BungalowID:     b.ID,
			BungalowNumber: b.Number,
			InitiatorID:    cmd.InitiatorID,
			At:             time.Now().UTC(),
		}
		if err := recordEvents(ctx, h.Outbox, h.Encoder, event); err != nil {
			return err
		}

		result = &RemoveAvatarResult{Event: event}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[RemoveAvatarCommand, *RemoveAvatarResult] = (*RemoveAvatarHandler)(nil)
