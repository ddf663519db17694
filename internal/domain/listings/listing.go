package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"spacio/internal/domain/shared/daterange"
	"spacio/internal/domain/shared/events"
	"spacio/internal/domain/shared/money"
)

var (
	ErrNotFound            = errors.New("listings: not found")
	ErrConcurrentUpdate    = errors.New("listings: concurrent update")
	ErrTitleRequired       = errors.New("listings: title is required")
	ErrPriceRequired       = errors.New("listings: price per month must be positive")
	ErrCapacityRequired    = errors.New("listings: total capacity must be positive")
	ErrInvalidSize         = errors.New("listings: size must be one of S, M, L")
	ErrInvalidWindow       = errors.New("listings: available to must not precede available from")
	ErrHoldExceeds         = errors.New("listings: hold exceeds available capacity")
	ErrReleaseExceeds      = errors.New("listings: release exceeds held capacity")
	ErrNonPositiveCapacity = errors.New("listings: capacity amount must be positive")
)

type ListingID string
type HostID string

// Size is the coarse bucket a host picks for the space.
type Size string

const (
	SizeSmall  Size = "S"
	SizeMedium Size = "M"
	SizeLarge  Size = "L"
)

func ParseSize(raw string) (Size, error) {
	switch Size(strings.ToUpper(strings.TrimSpace(raw))) {
	case SizeSmall:
		return SizeSmall, nil
	case SizeMedium:
		return SizeMedium, nil
	case SizeLarge:
		return SizeLarge, nil
	}
	return "", ErrInvalidSize
}

const DefaultRating = 4.7

// Listing is a storage space offered by a host. Capacity is measured in square feet.
type Listing struct {
	ID                ListingID
	Host              HostID
	Title             string
	Description       string
	Size              Size
	PricePerMonth     money.Money
	TotalCapacity     int
	AvailableCapacity int
	AvailableFrom     *time.Time
	AvailableTo       *time.Time
	BookingDeadline   *time.Time
	AddressSummary    string
	ZipCode           string
	Images            []string
	Rating            float64
	PolicyVersion     string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateListingParams struct {
	ID              ListingID
	Host            HostID
	Title           string
	Description     string
	Size            Size
	PricePerMonth   money.Money
	TotalCapacity   int
	AvailableFrom   *time.Time
	AvailableTo     *time.Time
	BookingDeadline *time.Time
	AddressSummary  string
	ZipCode         string
	Images          []string
	Rating          float64
	PolicyVersion   string
	Now             time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.PricePerMonth.Amount <= 0 {
		return nil, ErrPriceRequired
	}
	if params.TotalCapacity <= 0 {
		return nil, ErrCapacityRequired
	}
	if _, err := ParseSize(string(params.Size)); err != nil {
		return nil, err
	}
	from := dateOrNil(params.AvailableFrom)
	to := dateOrNil(params.AvailableTo)
	if from != nil && to != nil && to.Before(*from) {
		return nil, ErrInvalidWindow
	}
	rating := params.Rating
	if rating <= 0 {
		rating = DefaultRating
	}
	now := params.Now.UTC()

	listing := &Listing{
		ID:                params.ID,
		Host:              params.Host,
		Title:             strings.TrimSpace(params.Title),
		Description:       strings.TrimSpace(params.Description),
		Size:              params.Size,
		PricePerMonth:     params.PricePerMonth,
		TotalCapacity:     params.TotalCapacity,
		AvailableCapacity: params.TotalCapacity,
		AvailableFrom:     from,
		AvailableTo:       to,
		BookingDeadline:   dateOrNil(params.BookingDeadline),
		AddressSummary:    strings.TrimSpace(params.AddressSummary),
		ZipCode:           strings.TrimSpace(params.ZipCode),
		Images:            append([]string(nil), params.Images...),
		Rating:            rating,
		PolicyVersion:     params.PolicyVersion,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, TotalCapacity: listing.TotalCapacity, At: now})
	return listing, nil
}

// Snapshot returns the read-only pricing view consumed by quoting and validation.
func (l *Listing) Snapshot() PricingSnapshot {
	return PricingSnapshot{
		ListingID:         l.ID,
		Host:              l.Host,
		PricePerMonth:     l.PricePerMonth,
		TotalCapacity:     l.TotalCapacity,
		AvailableCapacity: l.AvailableCapacity,
		AvailableFrom:     copyTime(l.AvailableFrom),
		AvailableTo:       copyTime(l.AvailableTo),
		BookingDeadline:   copyTime(l.BookingDeadline),
		PolicyVersion:     l.PolicyVersion,
	}
}

// HoldCapacity reserves sqft for a pending or confirmed reservation.
func (l *Listing) HoldCapacity(sqft int, bookingID string, now time.Time) error {
	if sqft <= 0 {
		return ErrNonPositiveCapacity
	}
	if sqft > l.AvailableCapacity {
		return ErrHoldExceeds
	}
	l.AvailableCapacity -= sqft
	l.UpdatedAt = now.UTC()
	l.Record(CapacityHeldEvent{ListingID: l.ID, BookingID: bookingID, Sqft: sqft, Remaining: l.AvailableCapacity, At: l.UpdatedAt})
	return nil
}

// ReleaseCapacity returns sqft previously held by a reservation.
func (l *Listing) ReleaseCapacity(sqft int, bookingID string, now time.Time) error {
	if sqft <= 0 {
		return ErrNonPositiveCapacity
	}
	if l.AvailableCapacity+sqft > l.TotalCapacity {
		return ErrReleaseExceeds
	}
	l.AvailableCapacity += sqft
	l.UpdatedAt = now.UTC()
	l.Record(CapacityReleasedEvent{ListingID: l.ID, BookingID: bookingID, Sqft: sqft, Remaining: l.AvailableCapacity, At: l.UpdatedAt})
	return nil
}

// Clone returns a deep copy without pending events.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	cp := *l
	cp.EventRecorder = events.EventRecorder{}
	cp.Images = append([]string(nil), l.Images...)
	cp.AvailableFrom = copyTime(l.AvailableFrom)
	cp.AvailableTo = copyTime(l.AvailableTo)
	cp.BookingDeadline = copyTime(l.BookingDeadline)
	return &cp
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := daterange.Date(*t)
	return &d
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
