package middleware

import (
	"context"

	"partylodge/internal/app/commands"
	"partylodge/internal/app/outbox"
)

// LocalDispatch publishes a command's event records to in-process subscribers
// once the command has succeeded. It sits outside the transaction middleware,
// so a failed commit publishes nothing and an idempotency replay does not
// publish twice.
func LocalDispatch(dispatcher *outbox.Dispatcher) CommandMiddleware {
	if dispatcher == nil {
		panic("middleware: dispatcher required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx, staging := outbox.ContextWithStaging(ctx)
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			dispatcher.Publish(ctx, staging.Drain()...)
			return res, nil
		})
	}
}
