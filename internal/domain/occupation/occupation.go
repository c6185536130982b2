package occupation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partylodge/internal/domain/bungalow"
)

var (
	ErrReservationNotFound   = errors.New("occupation: reservation not found")
	ErrOccupancyNotFound     = errors.New("occupation: occupancy not found")
	ErrNotReservedOrOccupied = errors.New("occupation: bungalow is not reserved or occupied")
	ErrInvalidTransition     = errors.New("occupation: not in state 'reserved', cannot change to state 'occupied'")
	ErrCategoryMismatch      = errors.New("occupation: ticket categories do not match")
	ErrCapacityMismatch      = errors.New("occupation: target bungalow has a different capacity")
	ErrPinned                = errors.New("occupation: occupancy is pinned and cannot be moved")
	ErrSameBungalow          = errors.New("occupation: occupancy is already assigned to that bungalow")
	ErrTargetUnavailable     = errors.New("occupation: target bungalow is already taken")
	ErrNoTicketBundle        = errors.New("occupation: occupancy has no ticket bundle")
	ErrNotOccupied           = errors.New("occupation: occupancy is not in state 'occupied'")
	ErrOrderAlreadyAttached  = errors.New("occupation: an order is already attached")
)

type ReservationID string

type OccupancyID string

// State is the occupancy-level state, persisted as a string column and
// validated at the storage boundary.
type State string

const (
	StateReserved State = "reserved"
	StateOccupied State = "occupied"
)

func ParseState(raw string) (State, error) {
	switch State(raw) {
	case StateReserved, StateOccupied:
		return State(raw), nil
	}
	return "", fmt.Errorf("occupation: unknown occupancy state %q", raw)
}

// Reservation is a temporary hold on a bungalow pending payment. At most one
// exists per bungalow, enforced by the storage layer.
type Reservation struct {
	ID             ReservationID
	BungalowID     bungalow.BungalowID
	ReservedByID   string
	OrderNumber    string
	Pinned         bool
	InternalRemark string
}

// AttachOrder links a placed commerce order. Order numbers are unique and a
// reservation carries at most one; double attachment is rejected.
func (r *Reservation) AttachOrder(orderNumber string) error {
	if r.OrderNumber != "" {
		return ErrOrderAlreadyAttached
	}
	r.OrderNumber = orderNumber
	return nil
}

// Occupancy records who holds a bungalow, in which state, and its
// customization. Created by reserve (state=reserved) or by direct occupation
// (state=occupied); destroyed by release; re-parented by move.
type Occupancy struct {
	ID             OccupancyID
	BungalowID     bungalow.BungalowID
	OccupiedByID   string
	OrderNumber    string
	State          State
	TicketBundleID string
	Pinned         bool
	ManagerID      string
	Title          string
	Description    string
	AvatarRef      string
	InternalRemark string
}

// NewReservationOccupancy builds the occupancy that accompanies a fresh
// reservation. The manager defaults to the occupier and the title to the
// bungalow number.
func NewReservationOccupancy(id OccupancyID, b *bungalow.Bungalow, occupierID string) *Occupancy {
	return &Occupancy{
		ID:           id,
		BungalowID:   b.ID,
		OccupiedByID: occupierID,
		State:        StateReserved,
		ManagerID:    occupierID,
		Title:        fmt.Sprintf("Bungalow %d", b.Number),
	}
}

// NewDirectOccupancy builds an occupancy for a bungalow taken without a prior
// reservation, e.g. when a ticket bundle is sold without a browse step.
func NewDirectOccupancy(id OccupancyID, b *bungalow.Bungalow, occupierID, orderNumber, ticketBundleID string) *Occupancy {
	return &Occupancy{
		ID:             id,
		BungalowID:     b.ID,
		OccupiedByID:   occupierID,
		OrderNumber:    orderNumber,
		State:          StateOccupied,
		TicketBundleID: ticketBundleID,
		ManagerID:      occupierID,
		Title:          fmt.Sprintf("Bungalow %d", b.Number),
	}
}

// Occupy converts a reserved occupancy into an occupied one.
func (o *Occupancy) Occupy(ticketBundleID string) error {
	if o.State != StateReserved {
		return ErrInvalidTransition
	}
	o.State = StateOccupied
	o.TicketBundleID = ticketBundleID
	return nil
}

func (o *Occupancy) AttachOrder(orderNumber string) error {
	if o.OrderNumber != "" {
		return ErrOrderAlreadyAttached
	}
	o.OrderNumber = orderNumber
	return nil
}

// AppointManager hands management of the unit to another user. Only fully
// occupied bungalows with a ticket bundle have a roster to manage.
func (o *Occupancy) AppointManager(newManagerID string) error {
	if o.State != StateOccupied {
		return ErrNotOccupied
	}
	if o.TicketBundleID == "" {
		return ErrNoTicketBundle
	}
	o.ManagerID = newManagerID
	return nil
}

func (o *Occupancy) SetDescription(title, description string) {
	o.Title = title
	o.Description = description
}

// ValidateMove checks the move preconditions in order; the first failure
// wins. The caller must re-verify target availability against the
// transaction's view, not a stale read.
func ValidateMove(o *Occupancy, source, target *bungalow.Bungalow) error {
	if o.Pinned {
		return ErrPinned
	}
	if target.ID == source.ID {
		return ErrSameBungalow
	}
	if source.Category.Capacity != target.Category.Capacity {
		return ErrCapacityMismatch
	}
	if source.Category.TicketCategoryID != target.Category.TicketCategoryID {
		return ErrCategoryMismatch
	}
	if target.ReservedOrOccupied() {
		return ErrTargetUnavailable
	}
	return nil
}

// ReservationLedger is the persistence port for reservations. The uniqueness
// constraint on BungalowID is enforced at the storage layer and acts as the
// race-breaker for concurrent reserve calls.
type ReservationLedger interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	ByBungalow(ctx context.Context, bungalowID bungalow.BungalowID) (*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	Save(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id ReservationID) error
}

// OccupancyLedger is the persistence port for occupancies; BungalowID and
// OrderNumber are unique at the storage layer.
type OccupancyLedger interface {
	ByID(ctx context.Context, id OccupancyID) (*Occupancy, error)
	ByBungalow(ctx context.Context, bungalowID bungalow.BungalowID) (*Occupancy, error)
	ByTicketBundle(ctx context.Context, ticketBundleID string) (*Occupancy, error)
	ByOrderNumber(ctx context.Context, orderNumber string) (*Occupancy, error)
	ManagedBy(ctx context.Context, partyID, userID string) (*Occupancy, error)
	Create(ctx context.Context, o *Occupancy) error
	Save(ctx context.Context, o *Occupancy) error
	Reparent(ctx context.Context, id OccupancyID, newBungalowID bungalow.BungalowID) error
	Delete(ctx context.Context, id OccupancyID) error
}

// OccupantSlot pairs a bundle ticket with the user occupying it, if any.
type OccupantSlot struct {
	TicketID   string
	OccupantID string
	CreatedAt  time.Time
}
