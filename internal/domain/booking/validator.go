package booking

import (
	"fmt"
	"time"

	"spacio/internal/domain/listings"
	"spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
)

type RejectionCode string

const (
	CodeInsufficientCapacity      RejectionCode = "insufficient_capacity"
	CodeOutsideAvailabilityWindow RejectionCode = "outside_availability_window"
	CodePastBookingDeadline       RejectionCode = "past_booking_deadline"
	CodeSelfBookingNotAllowed     RejectionCode = "self_booking_not_allowed"
)

// Rejection is a user-correctable reason a reservation request cannot be accepted.
// errors.Is matches on Code, so the sentinels below match any rejection with the same code.
type Rejection struct {
	Code RejectionCode
	// Available is set for insufficient capacity.
	Available int
}

func (r *Rejection) Error() string {
	if r.Code == CodeInsufficientCapacity {
		return fmt.Sprintf("booking: insufficient capacity (available %d)", r.Available)
	}
	return "booking: " + string(r.Code)
}

func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Code == r.Code
}

var (
	ErrInsufficientCapacity      = &Rejection{Code: CodeInsufficientCapacity}
	ErrOutsideAvailabilityWindow = &Rejection{Code: CodeOutsideAvailabilityWindow}
	ErrPastBookingDeadline       = &Rejection{Code: CodePastBookingDeadline}
	ErrSelfBookingNotAllowed     = &Rejection{Code: CodeSelfBookingNotAllowed}
)

// CheckBooking runs every availability check and returns all rejections in a fixed order:
// capacity, window start, window end, deadline, self booking. Unset dates skip the window checks.
func CheckBooking(listing listings.PricingSnapshot, req pricing.QuoteRequest, today time.Time, requesterIsHost bool) []*Rejection {
	var out []*Rejection
	if req.RequestedCapacity < 1 || req.RequestedCapacity > listing.AvailableCapacity {
		out = append(out, &Rejection{Code: CodeInsufficientCapacity, Available: listing.AvailableCapacity})
	}
	requested := daterange.DateRange{Start: daterange.Date(req.StartDate), End: daterange.Date(req.EndDate)}
	from, to := listing.AvailableFrom, listing.AvailableTo
	if req.StartDate.IsZero() {
		from = nil
	}
	if req.EndDate.IsZero() {
		to = nil
	}
	if !requested.Within(from, to) {
		out = append(out, &Rejection{Code: CodeOutsideAvailabilityWindow})
	}
	if listing.BookingDeadline != nil && daterange.Date(today).After(daterange.Date(*listing.BookingDeadline)) {
		out = append(out, &Rejection{Code: CodePastBookingDeadline})
	}
	if requesterIsHost {
		out = append(out, &Rejection{Code: CodeSelfBookingNotAllowed})
	}
	return out
}

// ValidateBooking returns the first rejection from CheckBooking, or nil.
func ValidateBooking(listing listings.PricingSnapshot, req pricing.QuoteRequest, today time.Time, requesterIsHost bool) error {
	if rejections := CheckBooking(listing, req, today, requesterIsHost); len(rejections) > 0 {
		return rejections[0]
	}
	return nil
}
