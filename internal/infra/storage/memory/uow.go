package memory

import (
	"context"
	"errors"

	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires the in-memory stores into a unit-of-work boundary. No
// isolation is provided; the repositories' own locks are the only guard,
// which is enough for tests and demo mode.
type Factory struct {
	BungalowRepo    bungalow.Registry
	CategoryRepo    bungalow.CategoryRepository
	ReservationRepo occupation.ReservationLedger
	OccupancyRepo   occupation.OccupancyLedger
	AuditLogRepo    auditlog.Log
}

// NewFactory builds a fully wired in-memory stack.
func NewFactory() Factory {
	bungalows := NewBungalowRegistry()
	return Factory{
		BungalowRepo:    bungalows,
		CategoryRepo:    NewCategoryRepository(),
		ReservationRepo: NewReservationLedger(),
		OccupancyRepo:   NewOccupancyLedger(bungalows),
		AuditLogRepo:    NewAuditLog(),
	}
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BungalowRepo == nil || f.CategoryRepo == nil || f.ReservationRepo == nil || f.OccupancyRepo == nil || f.AuditLogRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		bungalows:    f.BungalowRepo,
		categories:   f.CategoryRepo,
		reservations: f.ReservationRepo,
		occupancies:  f.OccupancyRepo,
		auditLog:     f.AuditLogRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	bungalows    bungalow.Registry
	categories   bungalow.CategoryRepository
	reservations occupation.ReservationLedger
	occupancies  occupation.OccupancyLedger
	auditLog     auditlog.Log
}

func (u *Unit) Bungalows() bungalow.Registry { return u.bungalows }

func (u *Unit) Categories() bungalow.CategoryRepository { return u.categories }

func (u *Unit) Reservations() occupation.ReservationLedger { return u.reservations }

func (u *Unit) Occupancies() occupation.OccupancyLedger { return u.occupancies }

func (u *Unit) AuditLog() auditlog.Log { return u.auditLog }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }
