package middleware

import (
	"context"
	"log/slog"

	"spacio/internal/app/commands"
	"spacio/internal/app/outbox"
)

// OutboxFlush notifies the relay once a command succeeded. It must wrap the
// Transaction middleware so the flush happens after commit. Flush failures are
// logged only; records stay in the outbox and the relay picks them up on its next poll.
func OutboxFlush(flusher outbox.Flusher, logger *slog.Logger) CommandMiddleware {
	if flusher == nil {
		panic("middleware: outbox flusher required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := flusher.Flush(ctx); err != nil && logger != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
