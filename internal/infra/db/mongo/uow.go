package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"partylodge/internal/app/uow"
	"partylodge/internal/domain/auditlog"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic UnitOfWork interface. All
// repositories passed here read the session from the context injected by
// InjectContext, so every ledger write lands in the same transaction.
type Factory struct {
	DB *mongo.Database

	BungalowRepo    bungalow.Registry
	CategoryRepo    bungalow.CategoryRepository
	ReservationRepo occupation.ReservationLedger
	OccupancyRepo   occupation.OccupancyLedger
	AuditLogRepo    auditlog.Log
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		bungalows:    f.BungalowRepo,
		categories:   f.CategoryRepo,
		reservations: f.ReservationRepo,
		occupancies:  f.OccupancyRepo,
		auditLog:     f.AuditLogRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return translateConflict(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the Mongo session available to downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
