package dto

import (
	"time"

	domainbooking "spacio/internal/domain/booking"
	"spacio/internal/domain/shared/daterange"
)

// ReservationView is a reservation with its authoritative quote.
type ReservationView struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listingId"`
	HostID        string    `json:"hostId"`
	RenterID      string    `json:"renterId"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate"`
	SqftRequested int       `json:"sqftRequested"`
	AddInsurance  bool      `json:"addInsurance"`
	Status        string    `json:"status"`
	Days          int       `json:"days"`
	BasePrice     float64   `json:"basePrice"`
	ServiceFee    float64   `json:"serviceFee"`
	Insurance     float64   `json:"insurance"`
	Deposit       float64   `json:"deposit"`
	TotalPrice    float64   `json:"totalPrice"`
	Currency      string    `json:"currency"`
	PolicyVersion string    `json:"policyVersion"`
	HoldExpiresAt time.Time `json:"holdExpiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ReservationCollection struct {
	Items []ReservationView `json:"items"`
}

func MapReservation(b *domainbooking.Booking) ReservationView {
	return ReservationView{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		HostID:        string(b.HostID),
		RenterID:      b.RenterID,
		StartDate:     daterange.Format(b.Range.Start),
		EndDate:       daterange.Format(b.Range.End),
		SqftRequested: b.RequestedCapacity,
		AddInsurance:  b.AddInsurance,
		Status:        string(b.State),
		Days:          b.Quote.Days,
		BasePrice:     b.Quote.BasePrice.Float(),
		ServiceFee:    b.Quote.ServiceFee.Float(),
		Insurance:     b.Quote.InsuranceFee.Float(),
		Deposit:       b.Quote.Deposit.Float(),
		TotalPrice:    b.Quote.Total.Float(),
		Currency:      b.Quote.Total.Currency,
		PolicyVersion: b.Quote.PolicyVersion,
		HoldExpiresAt: b.HoldExpiresAt,
		CreatedAt:     b.CreatedAt,
	}
}
