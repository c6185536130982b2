package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"partylodge/internal/app/commands"
	"partylodge/internal/domain/bungalow"
	"partylodge/internal/domain/occupation"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays stored results for commands that carry an idempotency
// key, so commerce callbacks retried by the broker do not double-execute.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Error != "" {
					return nil, rehydrateError(rec.Error)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				record.Error = err.Error()
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

// domainSentinels lets a replayed failure keep its error identity, so the
// HTTP status mapping survives a broker retry.
var domainSentinels = []error{
	bungalow.ErrNotFound,
	bungalow.ErrCategoryNotFound,
	bungalow.ErrNotAvailable,
	bungalow.ErrStillOccupied,
	occupation.ErrReservationNotFound,
	occupation.ErrOccupancyNotFound,
	occupation.ErrNotReservedOrOccupied,
	occupation.ErrInvalidTransition,
	occupation.ErrOrderAlreadyAttached,
	occupation.ErrCategoryMismatch,
	occupation.ErrCapacityMismatch,
	occupation.ErrPinned,
	occupation.ErrSameBungalow,
	occupation.ErrTargetUnavailable,
	occupation.ErrNoTicketBundle,
	occupation.ErrNotOccupied,
}

func rehydrateError(msg string) error {
	for _, sentinel := range domainSentinels {
		if msg == sentinel.Error() {
			return sentinel
		}
	}
	return errors.New(msg)
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
