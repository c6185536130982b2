package policies

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBundleNotFound = errors.New("policies: ticket bundle not found")
	ErrTicketNotFound = errors.New("policies: ticket not found")
)

// Ticket is one admission ticket inside a bundle.
type Ticket struct {
	ID        string
	CreatedAt time.Time
	UsedByID  string
	Revoked   bool
}

// TicketBundle is a group of admission tickets sold together. Its owner and
// member tickets determine the bungalow's occupant roster.
type TicketBundle struct {
	ID               string
	TicketCategoryID string
	OwnerID          string
	OrderNumber      string
	Tickets          []Ticket
}

// TicketingPort is the ticket-bundle collaborator consumed by the lifecycle
// handlers. Bundle creation and revocation stay with the ticketing subsystem.
type TicketingPort interface {
	GetBundle(ctx context.Context, bundleID string) (TicketBundle, error)

	// AppointUserManager re-points the ticket's user manager; used by the
	// best-effort fan-out after a manager appointment.
	AppointUserManager(ctx context.Context, ticketID, newManagerID, initiatorID string) error

	// AppointUser assigns a user to a ticket slot; WithdrawUser clears it.
	AppointUser(ctx context.Context, ticketID, userID, initiatorID string) error
	WithdrawUser(ctx context.Context, ticketID, initiatorID string) error

	// UsesAnyTicketForParty reports whether the user already occupies a
	// ticket slot anywhere at the party.
	UsesAnyTicketForParty(ctx context.Context, userID, partyID string) (bool, error)
}
