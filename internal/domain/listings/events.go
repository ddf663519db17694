package listings

import (
	"time"
)

type ListingCreatedEvent struct {
	ListingID     ListingID
	HostID        HostID
	TotalCapacity int
	At            time.Time
}

func (e ListingCreatedEvent) EventName() string     { return "listing.created" }
func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreatedEvent) OccurredAt() time.Time { return e.At }

type CapacityHeldEvent struct {
	ListingID ListingID
	BookingID string
	Sqft      int
	Remaining int
	At        time.Time
}

func (e CapacityHeldEvent) EventName() string     { return "listing.capacity_held" }
func (e CapacityHeldEvent) AggregateID() string   { return string(e.ListingID) }
func (e CapacityHeldEvent) OccurredAt() time.Time { return e.At }

type CapacityReleasedEvent struct {
	ListingID ListingID
	BookingID string
	Sqft      int
	Remaining int
	At        time.Time
}

func (e CapacityReleasedEvent) EventName() string     { return "listing.capacity_released" }
func (e CapacityReleasedEvent) AggregateID() string   { return string(e.ListingID) }
func (e CapacityReleasedEvent) OccurredAt() time.Time { return e.At }
