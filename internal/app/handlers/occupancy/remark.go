package occupancy

import (
	"context"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/occupation"
)

const setInternalRemarkKey = "occupancy.set_internal_remark"

// SetInternalRemarkCommand updates the staff-only note on an occupancy. No
// state precondition beyond the occupancy existing.
type SetInternalRemarkCommand struct {
	OccupancyID string
	Remark      string
}

func (c SetInternalRemarkCommand) Key() string { return setInternalRemarkKey }

type SetInternalRemarkHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SetInternalRemarkHandler) Handle(ctx context.Context, cmd SetInternalRemarkCommand) (struct{}, error) {
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		occ.InternalRemark = cmd.Remark
		return unit.Occupancies().Save(ctx, occ)
	})
	return struct{}{}, err
}

var _ commands.Handler[SetInternalRemarkCommand, struct{}] = (*SetInternalRemarkHandler)(nil)

const setPinnedKey = "occupancy.set_pinned"

// SetPinnedCommand toggles the pinned flag that blocks moves.
type SetPinnedCommand struct {
	OccupancyID string
	Pinned      bool
}

func (c SetPinnedCommand) Key() string { return setPinnedKey }

type SetPinnedHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SetPinnedHandler) Handle(ctx context.Context, cmd SetPinnedCommand) (struct{}, error) {
	err := runInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByID(ctx, occupation.OccupancyID(cmd.OccupancyID))
		if err != nil {
			return err
		}
		occ.Pinned = cmd.Pinned
		return unit.Occupancies().Save(ctx, occ)
	})
	return struct{}{}, err
}

var _ commands.Handler[SetPinnedCommand, struct{}] = (*SetPinnedHandler)(nil)
