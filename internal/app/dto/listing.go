package dto

import (
	"time"

	domainlistings "spacio/internal/domain/listings"
	"spacio/internal/domain/shared/daterange"
)

// ListingView is the public representation of a storage listing.
type ListingView struct {
	ID              string    `json:"id"`
	HostID          string    `json:"hostId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Size            string    `json:"size"`
	PricePerMonth   float64   `json:"pricePerMonth"`
	Currency        string    `json:"currency"`
	SizeSqft        int       `json:"sizeSqft"`
	AvailableSqft   int       `json:"availableSqft"`
	AvailableFrom   string    `json:"availableFrom,omitempty"`
	AvailableTo     string    `json:"availableTo,omitempty"`
	BookingDeadline string    `json:"bookingDeadline,omitempty"`
	AddressSummary  string    `json:"addressSummary"`
	ZipCode         string    `json:"zipCode"`
	Images          []string  `json:"images"`
	Rating          float64   `json:"rating"`
	Availability    bool      `json:"availability"`
	PolicyVersion   string    `json:"policyVersion"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ListingCollection struct {
	Items []ListingView `json:"items"`
	Total int           `json:"total"`
}

func MapListing(l *domainlistings.Listing) ListingView {
	images := append([]string{}, l.Images...)
	return ListingView{
		ID:              string(l.ID),
		HostID:          string(l.Host),
		Title:           l.Title,
		Description:     l.Description,
		Size:            string(l.Size),
		PricePerMonth:   l.PricePerMonth.Float(),
		Currency:        l.PricePerMonth.Currency,
		SizeSqft:        l.TotalCapacity,
		AvailableSqft:   l.AvailableCapacity,
		AvailableFrom:   formatOptionalDate(l.AvailableFrom),
		AvailableTo:     formatOptionalDate(l.AvailableTo),
		BookingDeadline: formatOptionalDate(l.BookingDeadline),
		AddressSummary:  l.AddressSummary,
		ZipCode:         l.ZipCode,
		Images:          images,
		Rating:          l.Rating,
		Availability:    l.AvailableCapacity > 0,
		PolicyVersion:   l.PolicyVersion,
		CreatedAt:       l.CreatedAt,
	}
}

func MapListings(items []*domainlistings.Listing, total int) ListingCollection {
	out := ListingCollection{Items: make([]ListingView, 0, len(items)), Total: total}
	for _, l := range items {
		out.Items = append(out.Items, MapListing(l))
	}
	return out
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return daterange.Format(*t)
}
