package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"spacio/internal/domain/listings"
	"spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
	"spacio/internal/domain/shared/events"
)

var (
	ErrInvalidCapacity  = errors.New("booking: requested capacity must be positive")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrConcurrentUpdate = errors.New("booking: concurrent update")
	ErrForbidden        = errors.New("booking: caller is not a party to this reservation")
	// ErrCapacityNoLongerAvailable is returned when capacity was taken by a concurrent
	// reservation between validation and commit. Clients should re-quote and retry.
	ErrCapacityNoLongerAvailable = errors.New("booking: capacity no longer available, please retry")
)

type BookingID string

type BookingState string

const (
	StatePendingHostConfirmation BookingState = "pending_host_confirmation"
	StateConfirmed               BookingState = "confirmed"
	StateDeclined                BookingState = "declined"
	StateExpired                 BookingState = "expired"
	StateCancelled               BookingState = "cancelled"
)

const DefaultHoldTTL = 24 * time.Hour

// Booking is a renter's reservation of part of a listing's capacity.
// Pending and confirmed bookings hold capacity on the listing.
type Booking struct {
	ID                BookingID
	ListingID         listings.ListingID
	HostID            listings.HostID
	RenterID          string
	Range             daterange.DateRange
	RequestedCapacity int
	AddInsurance      bool
	Quote             pricing.Quote
	State             BookingState
	HoldExpiresAt     time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID listings.HostID) ([]*Booking, error)
	// ListExpiredHolds returns pending bookings whose hold expired at or before now.
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*Booking, error)
}

type CreateParams struct {
	ID                BookingID
	ListingID         listings.ListingID
	HostID            listings.HostID
	RenterID          string
	Range             daterange.DateRange
	RequestedCapacity int
	AddInsurance      bool
	Quote             pricing.Quote
	HoldTTL           time.Duration
	CreatedAt         time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("booking: id required")
	}
	if strings.TrimSpace(params.RenterID) == "" {
		return nil, errors.New("booking: renter id required")
	}
	if params.RequestedCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	ttl := params.HoldTTL
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:                params.ID,
		ListingID:         params.ListingID,
		HostID:            params.HostID,
		RenterID:          params.RenterID,
		Range:             params.Range,
		RequestedCapacity: params.RequestedCapacity,
		AddInsurance:      params.AddInsurance,
		Quote:             params.Quote,
		State:             StatePendingHostConfirmation,
		HoldExpiresAt:     now.Add(ttl),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		ListingID:   b.ListingID,
		RenterID:    b.RenterID,
		Range:       b.Range,
		Sqft:        b.RequestedCapacity,
		QuotedTotal: b.Quote.Total,
		At:          now,
	})
	return b, nil
}

// HoldsCapacity reports whether the booking still occupies listing capacity.
func (b *Booking) HoldsCapacity() bool {
	return b.State == StatePendingHostConfirmation || b.State == StateConfirmed
}

func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePendingHostConfirmation {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Total: b.Quote.Total, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Decline(reason string, now time.Time) error {
	if b.State != StatePendingHostConfirmation {
		return ErrInvalidState
	}
	b.State = StateDeclined
	b.UpdatedAt = now.UTC()
	b.Record(BookingDeclined{BookingID: b.ID, ListingID: b.ListingID, Reason: strings.TrimSpace(reason), At: b.UpdatedAt})
	return nil
}

// Expire moves a pending booking whose hold lapsed to expired.
func (b *Booking) Expire(now time.Time) error {
	if b.State != StatePendingHostConfirmation {
		return ErrInvalidState
	}
	if now.Before(b.HoldExpiresAt) {
		return ErrInvalidState
	}
	b.State = StateExpired
	b.UpdatedAt = now.UTC()
	b.Record(BookingExpired{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if !b.HoldsCapacity() {
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Reason: strings.TrimSpace(reason), At: b.UpdatedAt})
	return nil
}

// Clone returns a copy without pending events.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}
