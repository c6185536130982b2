package uow

import (
	"context"

	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// UnitOfWork coordinates the registry, ledgers and audit log inside one
// transaction boundary. Every lifecycle operation runs against exactly one
// unit; its mutations and audit entries commit or roll back as a whole.
type UnitOfWork interface {
	Bungalows() bungalow.Registry
	Categories() bungalow.CategoryRepository
	Reservations() occupation.ReservationLedger
	Occupancies() occupation.OccupancyLedger
	AuditLog() auditlog.Log

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
