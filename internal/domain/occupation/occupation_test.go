package occupation

import (
	"errors"
	"testing"

	"partylodge/internal/domain/bungalow"
)

func unit(id string, number int, state bungalow.OccupationState, capacity int, ticketCategoryID string) *bungalow.Bungalow {
	return &bungalow.Bungalow{
		ID:              bungalow.BungalowID(id),
		PartyID:         "party-1",
		Number:          number,
		OccupationState: state,
		Category: bungalow.Category{
			Capacity:         capacity,
			TicketCategoryID: ticketCategoryID,
		},
	}
}

func TestNewReservationOccupancyDefaults(t *testing.T) {
	b := unit("b1", 42, bungalow.StateAvailable, 6, "tc1")
	occ := NewReservationOccupancy("o1", b, "user-1")

	if occ.State != StateReserved {
		t.Fatalf("expected state reserved, got %q", occ.State)
	}
	if occ.ManagerID != "user-1" {
		t.Fatalf("expected occupier to manage by default, got %q", occ.ManagerID)
	}
	if occ.Title != "Bungalow 42" {
		t.Fatalf("expected default title from number, got %q", occ.Title)
	}
	if occ.TicketBundleID != "" {
		t.Fatalf("expected no bundle before occupation, got %q", occ.TicketBundleID)
	}
}

func TestNewDirectOccupancy(t *testing.T) {
	b := unit("b1", 7, bungalow.StateAvailable, 6, "tc1")
	occ := NewDirectOccupancy("o1", b, "user-1", "ORDER-1", "bundle-1")

	if occ.State != StateOccupied {
		t.Fatalf("expected state occupied, got %q", occ.State)
	}
	if occ.OrderNumber != "ORDER-1" || occ.TicketBundleID != "bundle-1" {
		t.Fatalf("expected order and bundle carried over, got %q / %q", occ.OrderNumber, occ.TicketBundleID)
	}
	if occ.Title != "Bungalow 7" {
		t.Fatalf("expected default title, got %q", occ.Title)
	}
}

func TestOccupyTransition(t *testing.T) {
	occ := &Occupancy{State: StateReserved}
	if err := occ.Occupy("bundle-1"); err != nil {
		t.Fatalf("occupy from reserved: %v", err)
	}
	if occ.State != StateOccupied || occ.TicketBundleID != "bundle-1" {
		t.Fatalf("expected occupied with bundle, got %q / %q", occ.State, occ.TicketBundleID)
	}

	if err := occ.Occupy("bundle-2"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double occupy, got %v", err)
	}
	if occ.TicketBundleID != "bundle-1" {
		t.Fatalf("bundle must not change on failed transition, got %q", occ.TicketBundleID)
	}
}

func TestAttachOrderOnce(t *testing.T) {
	res := &Reservation{}
	if err := res.AttachOrder("ORDER-1"); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if err := res.AttachOrder("ORDER-2"); !errors.Is(err, ErrOrderAlreadyAttached) {
		t.Fatalf("expected ErrOrderAlreadyAttached, got %v", err)
	}
	if res.OrderNumber != "ORDER-1" {
		t.Fatalf("order number must keep first value, got %q", res.OrderNumber)
	}

	occ := &Occupancy{}
	if err := occ.AttachOrder("ORDER-1"); err != nil {
		t.Fatalf("first attach on occupancy: %v", err)
	}
	if err := occ.AttachOrder("ORDER-2"); !errors.Is(err, ErrOrderAlreadyAttached) {
		t.Fatalf("expected ErrOrderAlreadyAttached on occupancy, got %v", err)
	}
}

func TestAppointManager(t *testing.T) {
	occ := &Occupancy{State: StateReserved, ManagerID: "user-1"}
	if err := occ.AppointManager("user-2"); !errors.Is(err, ErrNotOccupied) {
		t.Fatalf("expected ErrNotOccupied while reserved, got %v", err)
	}

	occ.State = StateOccupied
	if err := occ.AppointManager("user-2"); !errors.Is(err, ErrNoTicketBundle) {
		t.Fatalf("expected ErrNoTicketBundle without bundle, got %v", err)
	}
	if occ.ManagerID != "user-1" {
		t.Fatalf("manager must not change on failure, got %q", occ.ManagerID)
	}

	occ.TicketBundleID = "bundle-1"
	if err := occ.AppointManager("user-2"); err != nil {
		t.Fatalf("appoint manager: %v", err)
	}
	if occ.ManagerID != "user-2" {
		t.Fatalf("expected new manager, got %q", occ.ManagerID)
	}
}

func TestValidateMoveOrder(t *testing.T) {
	// Each case violates several preconditions at once; the reported error
	// must be the first one in the check order.
	tests := []struct {
		name   string
		occ    *Occupancy
		source *bungalow.Bungalow
		target *bungalow.Bungalow
		err    error
	}{
		{
			name:   "pinned wins over everything",
			occ:    &Occupancy{Pinned: true},
			source: unit("b1", 1, bungalow.StateOccupied, 6, "tc1"),
			target: unit("b1", 1, bungalow.StateOccupied, 4, "tc2"),
			err:    ErrPinned,
		},
		{
			name:   "same bungalow before capacity",
			occ:    &Occupancy{},
			source: unit("b1", 1, bungalow.StateOccupied, 6, "tc1"),
			target: unit("b1", 1, bungalow.StateOccupied, 4, "tc2"),
			err:    ErrSameBungalow,
		},
		{
			name:   "capacity before ticket category",
			occ:    &Occupancy{},
			source: unit("b1", 1, bungalow.StateOccupied, 6, "tc1"),
			target: unit("b2", 2, bungalow.StateOccupied, 4, "tc2"),
			err:    ErrCapacityMismatch,
		},
		{
			name:   "ticket category before target availability",
			occ:    &Occupancy{},
			source: unit("b1", 1, bungalow.StateOccupied, 6, "tc1"),
			target: unit("b2", 2, bungalow.StateOccupied, 6, "tc2"),
			err:    ErrCategoryMismatch,
		},
		{
			name:   "taken target last",
			occ:    &Occupancy{},
			source: unit("b1", 1, bungalow.StateOccupied, 6, "tc1"),
			target: unit("b2", 2, bungalow.StateReserved, 6, "tc1"),
			err:    ErrTargetUnavailable,
		},
		{
			name:   "free matching target passes",
			occ:    &Occupancy{},
			source: unit("b1", 1, bungalow.StateOccupied, 6, "tc1"),
			target: unit("b2", 2, bungalow.StateAvailable, 6, "tc1"),
			err:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMove(tt.occ, tt.source, tt.target)
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	for _, raw := range []string{"reserved", "occupied"} {
		state, err := ParseState(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if string(state) != raw {
			t.Fatalf("expected %q, got %q", raw, state)
		}
	}
	if _, err := ParseState("available"); err == nil {
		t.Fatal("expected error: available is a registry state, not an occupancy state")
	}
}
