package listings

import (
	"time"

	"spacio/internal/domain/shared/money"
)

// PricingSnapshot is the subset of a listing needed to quote and validate a reservation.
// Optional bounds are nil when the host did not set them.
type PricingSnapshot struct {
	ListingID         ListingID
	Host              HostID
	PricePerMonth     money.Money
	TotalCapacity     int
	AvailableCapacity int
	AvailableFrom     *time.Time
	AvailableTo       *time.Time
	BookingDeadline   *time.Time
	PolicyVersion     string
}
