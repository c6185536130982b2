package occupancy

import (
	"context"
	"errors"

	"partylodge/internal/app/outbox"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/shared/events"
)

// ErrTicketingUnavailable is returned when an operation needs the ticketing
// collaborator and none is wired.
var ErrTicketingUnavailable = errors.New("occupancy: ticketing collaborator unavailable")

func runInUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	return uow.Run(ctx, factory, fn)
}

// recordEvents stores domain events in the outbox within the current
// transaction.
func recordEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, evs ...events.DomainEvent) error {
	return outbox.RecordDomainEvents(ctx, box, encoder, evs)
}
