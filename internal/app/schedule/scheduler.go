package schedule

import (
	"context"
	"time"

	"spacio/internal/app/commands"
	"spacio/internal/app/handlers/booking"
)

// Task is one run of a periodic job. Errors are reported, never fatal.
type Task func(ctx context.Context) error

// Scheduler runs tasks at a fixed interval until shut down.
type Scheduler interface {
	Every(ctx context.Context, name string, interval time.Duration, task Task) error
	Start()
	Shutdown() error
}

const ExpireHoldsJob = "booking.expire_holds"

// ExpireHolds dispatches the hold expiry sweep through the command bus so it
// runs inside a unit of work like any other command.
func ExpireHolds(bus commands.Bus, batch int) Task {
	return func(ctx context.Context) error {
		_, err := commands.Dispatch[booking.ExpireHoldsCommand, booking.ExpireHoldsResult](ctx, bus, booking.ExpireHoldsCommand{Limit: batch})
		return err
	}
}
