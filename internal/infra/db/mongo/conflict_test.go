package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"partylodge/internal/domain/bungalow"
)

func TestTranslateConflict(t *testing.T) {
	writeConflict := mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict", Message: "WriteConflict"}
	if got := translateConflict(writeConflict); !errors.Is(got, bungalow.ErrNotAvailable) {
		t.Fatalf("write conflict must map to ErrNotAvailable, got %v", got)
	}

	transient := mongo.CommandError{Code: 251, Name: "NoSuchTransaction", Labels: []string{"TransientTransactionError"}}
	if got := translateConflict(transient); !errors.Is(got, bungalow.ErrNotAvailable) {
		t.Fatalf("transient transaction abort must map to ErrNotAvailable, got %v", got)
	}

	wrapped := fmt.Errorf("commit: %w", transient)
	if got := translateConflict(wrapped); !errors.Is(got, bungalow.ErrNotAvailable) {
		t.Fatalf("wrapped transient error must map to ErrNotAvailable, got %v", got)
	}

	other := errors.New("network down")
	if got := translateConflict(other); !errors.Is(got, other) {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
	if got := translateConflict(nil); got != nil {
		t.Fatalf("nil must stay nil, got %v", got)
	}
}
