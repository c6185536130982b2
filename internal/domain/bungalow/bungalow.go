package bungalow

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("bungalow: not found")
	ErrNotAvailable     = errors.New("bungalow: not available")
	ErrStillOccupied    = errors.New("bungalow: reserved or occupied, must not be deleted")
	ErrCategoryNotFound = errors.New("bungalow: category not found")
)

type BungalowID string

type CategoryID string

// OccupationState is the registry-level state of a unit. It is persisted as a
// string column; ParseOccupationState validates at the storage boundary so an
// invalid state string can never enter the domain.
type OccupationState string

const (
	StateAvailable OccupationState = "available"
	StateReserved  OccupationState = "reserved"
	StateOccupied  OccupationState = "occupied"
)

func ParseOccupationState(raw string) (OccupationState, error) {
	switch OccupationState(raw) {
	case StateAvailable, StateReserved, StateOccupied:
		return OccupationState(raw), nil
	}
	return "", fmt.Errorf("bungalow: unknown occupation state %q", raw)
}

// Category is immutable reference data for the lifecycle engine; it is
// created and updated by the catalog component.
type Category struct {
	ID               CategoryID
	PartyID          string
	Title            string
	Capacity         int
	TicketCategoryID string
	ProductID        string
	ImageFilename    string
	ImageWidth       int
	ImageHeight      int
}

// Bungalow is a bookable lodging unit offered for a party. Its occupation
// state is mutated only by the lifecycle handlers.
type Bungalow struct {
	ID                 BungalowID
	PartyID            string
	Number             int
	CategoryID         CategoryID
	Category           Category
	OccupationState    OccupationState
	DistributesNetwork bool
}

func (b *Bungalow) Available() bool {
	return b.OccupationState == StateAvailable
}

func (b *Bungalow) Reserved() bool {
	return b.OccupationState == StateReserved
}

func (b *Bungalow) Occupied() bool {
	return b.OccupationState == StateOccupied
}

func (b *Bungalow) ReservedOrOccupied() bool {
	return b.Reserved() || b.Occupied()
}

// Registry is the persistence port for bungalows. It performs no business
// validation; the lifecycle handlers check invariants before calling SetState.
type Registry interface {
	ByID(ctx context.Context, id BungalowID) (*Bungalow, error)
	ByNumber(ctx context.Context, partyID string, number int) (*Bungalow, error)
	ListForParty(ctx context.Context, partyID string) ([]*Bungalow, error)
	Save(ctx context.Context, b *Bungalow) error
	SetState(ctx context.Context, id BungalowID, state OccupationState) error
	SetDistributesNetwork(ctx context.Context, id BungalowID, flag bool) error
	Delete(ctx context.Context, id BungalowID) error
}

// CategoryRepository resolves category reference data.
type CategoryRepository interface {
	ByID(ctx context.Context, id CategoryID) (*Category, error)
	Save(ctx context.Context, c *Category) error
}

// StateTotals counts a party's bungalows by occupation state.
type StateTotals struct {
	Available int
	Reserved  int
	Occupied  int
}

func (t StateTotals) Total() int {
	return t.Available + t.Reserved + t.Occupied
}
