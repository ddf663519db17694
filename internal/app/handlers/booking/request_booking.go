package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/middleware"
	"spacio/internal/app/outbox"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	ListingID     string `validate:"required"`
	RenterID      string `validate:"required"`
	StartDate     string `validate:"required"`
	EndDate       string `validate:"required"`
	SqftRequested int    `validate:"gt=0"`
	AddInsurance  bool
	// IdemKey is the client's Idempotency-Key header.
	IdemKey string `validate:"max=128"`
}

func (RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string {
	if c.IdemKey == "" {
		return ""
	}
	return c.RenterID + ":" + c.IdemKey
}

func (RequestBookingCommand) ResultPrototype() any { return &dto.ReservationView{} }

func (RequestBookingCommand) RequiresPrincipal() bool { return true }

type RequestBookingHandler struct {
	Calculator domainpricing.Calculator
	HoldTTL    time.Duration
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Clock      func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.ReservationView, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	start, err := daterange.ParseDate(cmd.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := daterange.ParseDate(cmd.EndDate)
	if err != nil {
		return nil, err
	}
	dates, err := daterange.New(start, end)
	if err != nil {
		return nil, err
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	now := support.Now(h.Clock)
	snapshot := listing.Snapshot()
	req := domainpricing.QuoteRequest{
		StartDate:         dates.Start,
		EndDate:           dates.End,
		RequestedCapacity: cmd.SqftRequested,
		AddInsurance:      cmd.AddInsurance,
	}
	isHost := string(snapshot.Host) == cmd.RenterID
	if err := domainbooking.ValidateBooking(snapshot, req, daterange.Date(now), isHost); err != nil {
		// A retry only happens after another reservation won the race for this listing.
		if middleware.Attempt(ctx) > 1 && errors.Is(err, domainbooking.ErrInsufficientCapacity) {
			return nil, fmt.Errorf("%w: %w", domainbooking.ErrCapacityNoLongerAvailable, err)
		}
		return nil, err
	}
	quote, err := h.Calculator.Quote(snapshot, req)
	if err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:                domainbooking.BookingID(uuid.NewString()),
		ListingID:         listing.ID,
		HostID:            listing.Host,
		RenterID:          cmd.RenterID,
		Range:             dates,
		RequestedCapacity: cmd.SqftRequested,
		AddInsurance:      cmd.AddInsurance,
		Quote:             quote,
		HoldTTL:           h.HoldTTL,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}
	if err := listing.HoldCapacity(b.RequestedCapacity, string(b.ID), now); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := support.RecordEvents(ctx, unit, h.Encoder, b, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation requested",
			"booking_id", b.ID,
			"listing_id", listing.ID,
			"sqft", b.RequestedCapacity,
			"total", quote.Total.String(),
			"attempt", middleware.Attempt(ctx),
		)
	}
	view := dto.MapReservation(b)
	return &view, nil
}

var _ commands.Handler[RequestBookingCommand, *dto.ReservationView] = (*RequestBookingHandler)(nil)
