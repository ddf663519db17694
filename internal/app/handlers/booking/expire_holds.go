package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"spacio/internal/app/commands"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/outbox"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
)

const (
	expireHoldsKey     = "booking.expire_holds"
	defaultExpireBatch = 100
)

// ExpireHoldsCommand expires pending reservations whose hold lapsed and
// returns their capacity. It is dispatched by the scheduler.
type ExpireHoldsCommand struct {
	Limit int `validate:"gte=0,lte=1000"`
}

func (ExpireHoldsCommand) Key() string { return expireHoldsKey }

type ExpireHoldsResult struct {
	Expired int
	Skipped int
}

type ExpireHoldsHandler struct {
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (h *ExpireHoldsHandler) Handle(ctx context.Context, cmd ExpireHoldsCommand) (ExpireHoldsResult, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return ExpireHoldsResult{}, err
	}
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultExpireBatch
	}
	now := support.Now(h.Clock)
	due, err := unit.Bookings().ListExpiredHolds(ctx, now, limit)
	if err != nil {
		return ExpireHoldsResult{}, err
	}

	var res ExpireHoldsResult
	for _, b := range due {
		err := b.Expire(now)
		if err == nil {
			err = settle(ctx, unit, h.Encoder, b, true, now)
		}
		if err != nil {
			if !skippableExpiry(err) {
				return res, err
			}
			res.Skipped++
			if h.Logger != nil {
				h.Logger.Warn("reservation hold not expired", "booking_id", b.ID, "listing_id", b.ListingID, "error", err)
			}
			continue
		}
		res.Expired++
	}
	if h.Logger != nil && res.Expired > 0 {
		h.Logger.Info("reservation holds expired", "count", res.Expired, "skipped", res.Skipped)
	}
	return res, nil
}

// skippableExpiry matches failures raised before settle writes anything, so the
// rest of the batch can still commit. Storage and conflict errors abort the sweep.
func skippableExpiry(err error) bool {
	return errors.Is(err, domainlistings.ErrNotFound) ||
		errors.Is(err, domainlistings.ErrReleaseExceeds) ||
		errors.Is(err, domainbooking.ErrInvalidState)
}

var _ commands.Handler[ExpireHoldsCommand, ExpireHoldsResult] = (*ExpireHoldsHandler)(nil)
