package booking

import (
	"context"
	"log/slog"
	"time"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/outbox"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
)

const (
	approveBookingKey = "booking.approve"
	declineBookingKey = "booking.decline"
	cancelBookingKey  = "booking.cancel"
)

type ApproveBookingCommand struct {
	BookingID string `validate:"required"`
	HostID    string `validate:"required"`
}

func (ApproveBookingCommand) Key() string { return approveBookingKey }

func (ApproveBookingCommand) RequiresHost() bool { return true }

type DeclineBookingCommand struct {
	BookingID string `validate:"required"`
	HostID    string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (DeclineBookingCommand) Key() string { return declineBookingKey }

func (DeclineBookingCommand) RequiresHost() bool { return true }

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	RenterID  string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (CancelBookingCommand) Key() string { return cancelBookingKey }

func (CancelBookingCommand) RequiresPrincipal() bool { return true }

// DecisionHandler serves the host's approve and decline commands and the renter's cancel.
type DecisionHandler struct {
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (h *DecisionHandler) Approve(ctx context.Context, cmd ApproveBookingCommand) (*dto.ReservationView, error) {
	return h.transition(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		if string(b.HostID) != cmd.HostID {
			return domainbooking.ErrForbidden
		}
		return b.Confirm(now)
	})
}

func (h *DecisionHandler) Decline(ctx context.Context, cmd DeclineBookingCommand) (*dto.ReservationView, error) {
	return h.transition(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		if string(b.HostID) != cmd.HostID {
			return domainbooking.ErrForbidden
		}
		return b.Decline(cmd.Reason, now)
	})
}

func (h *DecisionHandler) Cancel(ctx context.Context, cmd CancelBookingCommand) (*dto.ReservationView, error) {
	return h.transition(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		if b.RenterID != cmd.RenterID {
			return domainbooking.ErrForbidden
		}
		return b.Cancel(cmd.Reason, now)
	})
}

func (h *DecisionHandler) transition(ctx context.Context, id string, apply func(*domainbooking.Booking, time.Time) error) (*dto.ReservationView, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		return nil, err
	}
	now := support.Now(h.Clock)
	held := b.HoldsCapacity()
	if err := apply(b, now); err != nil {
		return nil, err
	}
	if err := settle(ctx, unit, h.Encoder, b, held, now); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("reservation updated", "booking_id", b.ID, "listing_id", b.ListingID, "state", b.State)
	}
	view := dto.MapReservation(b)
	return &view, nil
}

// settle saves b after a state change, returning its capacity to the listing
// when the booking stopped holding it, and records the resulting events.
func settle(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, b *domainbooking.Booking, heldBefore bool, now time.Time) error {
	if heldBefore && !b.HoldsCapacity() {
		listing, err := unit.Listings().ByID(ctx, b.ListingID)
		if err != nil {
			return err
		}
		if err := listing.ReleaseCapacity(b.RequestedCapacity, string(b.ID), now); err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return support.RecordEvents(ctx, unit, encoder, b, listing)
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	return support.RecordEvents(ctx, unit, encoder, b)
}

// Handlers exposes the three transitions for bus registration.
func (h *DecisionHandler) Handlers() (
	commands.Handler[ApproveBookingCommand, *dto.ReservationView],
	commands.Handler[DeclineBookingCommand, *dto.ReservationView],
	commands.Handler[CancelBookingCommand, *dto.ReservationView],
) {
	return commands.HandlerFunc[ApproveBookingCommand, *dto.ReservationView](h.Approve),
		commands.HandlerFunc[DeclineBookingCommand, *dto.ReservationView](h.Decline),
		commands.HandlerFunc[CancelBookingCommand, *dto.ReservationView](h.Cancel)
}
