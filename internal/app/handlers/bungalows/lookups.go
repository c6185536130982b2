package bungalows

import (
	"context"
	"errors"

	"partylodge/internal/app/queries"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/occupation"
)

const managedByKey = "bungalows.occupancy_managed_by"

// OccupancyManagedByQuery finds the occupancy a user manages at a party.
type OccupancyManagedByQuery struct {
	PartyID string
	UserID  string
}

func (q OccupancyManagedByQuery) Key() string { return managedByKey }

type OccupancyManagedByHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OccupancyManagedByHandler) Handle(ctx context.Context, q OccupancyManagedByQuery) (*occupation.Occupancy, error) {
	var result *occupation.Occupancy
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ManagedBy(ctx, q.PartyID, q.UserID)
		if err != nil {
			return err
		}
		result = occ
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[OccupancyManagedByQuery, *occupation.Occupancy] = (*OccupancyManagedByHandler)(nil)

const forTicketBundleKey = "bungalows.occupancy_for_ticket_bundle"

// OccupancyForTicketBundleQuery finds the occupancy backed by a ticket bundle.
type OccupancyForTicketBundleQuery struct {
	TicketBundleID string
}

func (q OccupancyForTicketBundleQuery) Key() string { return forTicketBundleKey }

type OccupancyForTicketBundleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OccupancyForTicketBundleHandler) Handle(ctx context.Context, q OccupancyForTicketBundleQuery) (*occupation.Occupancy, error) {
	var result *occupation.Occupancy
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		occ, err := unit.Occupancies().ByTicketBundle(ctx, q.TicketBundleID)
		if err != nil {
			return err
		}
		result = occ
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ queries.Handler[OccupancyForTicketBundleQuery, *occupation.Occupancy] = (*OccupancyForTicketBundleHandler)(nil)

const hasUserOccupiedKey = "bungalows.has_user_occupied"

// HasUserOccupiedQuery reports whether the user manages any occupancy at the
// party.
type HasUserOccupiedQuery struct {
	PartyID string
	UserID  string
}

func (q HasUserOccupiedQuery) Key() string { return hasUserOccupiedKey }

type HasUserOccupiedHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *HasUserOccupiedHandler) Handle(ctx context.Context, q HasUserOccupiedQuery) (bool, error) {
	occupied := false
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		_, err := unit.Occupancies().ManagedBy(ctx, q.PartyID, q.UserID)
		switch {
		case err == nil:
			occupied = true
			return nil
		case errors.Is(err, occupation.ErrOccupancyNotFound):
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, err
	}
	return occupied, nil
}

var _ queries.Handler[HasUserOccupiedQuery, bool] = (*HasUserOccupiedHandler)(nil)
