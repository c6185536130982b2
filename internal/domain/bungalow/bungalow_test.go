package bungalow

import "testing"

func TestParseOccupationState(t *testing.T) {
	for _, raw := range []string{"available", "reserved", "occupied"} {
		state, err := ParseOccupationState(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if string(state) != raw {
			t.Fatalf("expected state %q, got %q", raw, state)
		}
	}

	if _, err := ParseOccupationState("torn-down"); err == nil {
		t.Fatal("expected error for unknown state")
	}
	if _, err := ParseOccupationState(""); err == nil {
		t.Fatal("expected error for empty state")
	}
}

func TestStatePredicates(t *testing.T) {
	tests := []struct {
		state              OccupationState
		available          bool
		reserved           bool
		occupied           bool
		reservedOrOccupied bool
	}{
		{StateAvailable, true, false, false, false},
		{StateReserved, false, true, false, true},
		{StateOccupied, false, false, true, true},
	}

	for _, tt := range tests {
		b := &Bungalow{OccupationState: tt.state}
		if b.Available() != tt.available {
			t.Fatalf("%s: Available() = %v", tt.state, b.Available())
		}
		if b.Reserved() != tt.reserved {
			t.Fatalf("%s: Reserved() = %v", tt.state, b.Reserved())
		}
		if b.Occupied() != tt.occupied {
			t.Fatalf("%s: Occupied() = %v", tt.state, b.Occupied())
		}
		if b.ReservedOrOccupied() != tt.reservedOrOccupied {
			t.Fatalf("%s: ReservedOrOccupied() = %v", tt.state, b.ReservedOrOccupied())
		}
	}
}

func TestStateTotals(t *testing.T) {
	totals := StateTotals{Available: 3, Reserved: 2, Occupied: 5}
	if totals.Total() != 10 {
		t.Fatalf("expected total 10, got %d", totals.Total())
	}

	var empty StateTotals
	if empty.Total() != 0 {
		t.Fatalf("expected empty total 0, got %d", empty.Total())
	}
}
