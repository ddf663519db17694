package middleware

import (
	"context"
	"time"

	"spacio/internal/app/commands"
)

type attemptKey struct{}

// Attempt returns the 1-based attempt number of the command running under ctx.
func Attempt(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok && n > 0 {
		return n
	}
	return 1
}

// ContextWithAttempt marks ctx as running the given attempt.
func ContextWithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// RetryOnConflict re-dispatches a command whose unit of work lost an optimistic
// concurrency race. It must wrap Transaction so every attempt gets a fresh unit.
func RetryOnConflict(maxAttempts int, isConflict func(error) bool, backoff time.Duration) CommandMiddleware {
	if isConflict == nil {
		panic("middleware: conflict predicate required")
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			for attempt := 1; ; attempt++ {
				res, err := nextFn(ContextWithAttempt(ctx, attempt), cmd)
				if err == nil || attempt >= maxAttempts || !isConflict(err) {
					return res, err
				}
				if backoff > 0 {
					timer := time.NewTimer(backoff * time.Duration(attempt))
					select {
					case <-ctx.Done():
						timer.Stop()
						return nil, ctx.Err()
					case <-timer.C:
					}
				}
			}
		})
	}
}
