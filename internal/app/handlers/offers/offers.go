// Package offers holds the command handlers for the bungalow offer lifecycle:
// putting units up for a party, withdrawing them while still available, and
// toggling the network flag.
package offers

import (
	"context"

	"github.com/google/uuid"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/uow"
	"partylodge/internal/domain/bungalow"
)

const offerKey = "offers.offer_bungalow"

// OfferBungalowCommand creates a bookable unit in state available. Numbers
// are unique per party, enforced by the storage layer.
type OfferBungalowCommand struct {
	PartyID            string
	Number             int
	CategoryID         string
	DistributesNetwork bool
}

func (c OfferBungalowCommand) Key() string { return offerKey }

type OfferBungalowResult struct {
	Bungalow *bungalow.Bungalow
}

type OfferBungalowHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OfferBungalowHandler) Handle(ctx context.Context, cmd OfferBungalowCommand) (*OfferBungalowResult, error) {
	var result *OfferBungalowResult
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		category, err := unit.Categories().ByID(ctx, bungalow.CategoryID(cmd.CategoryID))
		if err != nil {
			return err
		}
		b := &bungalow.Bungalow{
			ID:                 bungalow.BungalowID(uuid.NewString()),
			PartyID:            cmd.PartyID,
			Number:             cmd.Number,
			CategoryID:         category.ID,
			Category:           *category,
			OccupationState:    bungalow.StateAvailable,
			DistributesNetwork: cmd.DistributesNetwork,
		}
		if err := unit.Bungalows().Save(ctx, b); err != nil {
			return err
		}
		result = &OfferBungalowResult{Bungalow: b}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[OfferBungalowCommand, *OfferBungalowResult] = (*OfferBungalowHandler)(nil)

const offerManyKey = "offers.offer_bungalows"

// OfferBungalowsCommand offers a batch of numbers in one transaction.
type OfferBungalowsCommand struct {
	PartyID            string
	Numbers            []int
	CategoryID         string
	DistributesNetwork bool
}

func (c OfferBungalowsCommand) Key() string { return offerManyKey }

type OfferBungalowsResult struct {
	Bungalows []*bungalow.Bungalow
}

type OfferBungalowsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OfferBungalowsHandler) Handle(ctx context.Context, cmd OfferBungalowsCommand) (*OfferBungalowsResult, error) {
	var result *OfferBungalowsResult
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		category, err := unit.Categories().ByID(ctx, bungalow.CategoryID(cmd.CategoryID))
		if err != nil {
			return err
		}
		created := make([]*bungalow.Bungalow, 0, len(cmd.Numbers))
		for _, number := range cmd.Numbers {
			b := &bungalow.Bungalow{
				ID:                 bungalow.BungalowID(uuid.NewString()),
				PartyID:            cmd.PartyID,
				Number:             number,
				CategoryID:         category.ID,
				Category:           *category,
				OccupationState:    bungalow.StateAvailable,
				DistributesNetwork: cmd.DistributesNetwork,
			}
			if err := unit.Bungalows().Save(ctx, b); err != nil {
				return err
			}
			created = append(created, b)
		}
		result = &OfferBungalowsResult{Bungalows: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var _ commands.Handler[OfferBungalowsCommand, *OfferBungalowsResult] = (*OfferBungalowsHandler)(nil)

const withdrawKey = "offers.withdraw_bungalow"

// WithdrawBungalowCommand removes an offered unit. Only available units can be
// withdrawn; the unit's audit log entries are deleted in the same transaction,
// the single place where log deletion is permitted.
type WithdrawBungalowCommand struct {
	BungalowID string
}

func (c WithdrawBungalowCommand) Key() string { return withdrawKey }

type WithdrawBungalowHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *WithdrawBungalowHandler) Handle(ctx context.Context, cmd WithdrawBungalowCommand) (struct{}, error) {
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bungalows().ByID(ctx, bungalow.BungalowID(cmd.BungalowID))
		if err != nil {
			return err
		}
		if !b.Available() {
			return bungalow.ErrStillOccupied
		}
		if err := unit.AuditLog().DeleteForBungalow(ctx, b.ID); err != nil {
			return err
		}
		return unit.Bungalows().Delete(ctx, b.ID)
	})
	return struct{}{}, err
}

var _ commands.Handler[WithdrawBungalowCommand, struct{}] = (*WithdrawBungalowHandler)(nil)

const setNetworkKey = "offers.set_distributes_network"

// SetDistributesNetworkCommand flags whether the unit shares its uplink.
type SetDistributesNetworkCommand struct {
	BungalowID string
	Flag       bool
}

func (c SetDistributesNetworkCommand) Key() string { return setNetworkKey }

type SetDistributesNetworkHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SetDistributesNetworkHandler) Handle(ctx context.Context, cmd SetDistributesNetworkCommand) (struct{}, error) {
	err := uow.Run(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		return unit.Bungalows().SetDistributesNetwork(ctx, bungalow.BungalowID(cmd.BungalowID), cmd.Flag)
	})
	return struct{}{}, err
}

var _ commands.Handler[SetDistributesNetworkCommand, struct{}] = (*SetDistributesNetworkHandler)(nil)
