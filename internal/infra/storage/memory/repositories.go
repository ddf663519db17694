package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
)

// ListingRepository holds committed listings. Callers always receive clones,
// so changes become visible only through Save or a unit commit.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing.Clone(), nil
}

// Save stores listing outside of a unit of work, checking its version.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkVersion(listing.ID, listing.Version); err != nil {
		return err
	}
	listing.Version++
	r.items[listing.ID] = listing.Clone()
	return nil
}

// checkVersion reports a conflict unless the stored version equals expected.
// Zero means the listing must not exist yet. Callers hold r.mu.
func (r *ListingRepository) checkVersion(id domainlistings.ListingID, expected int64) error {
	current, ok := r.items[id]
	switch {
	case !ok && expected == 0:
		return nil
	case !ok || current.Version != expected:
		return domainlistings.ErrConcurrentUpdate
	}
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if err := ctx.Err(); err != nil {
			return domainlistings.SearchResult{}, err
		}
		if !opts.Matches(listing) {
			continue
		}
		matches = append(matches, listing.Clone())
	}
	domainlistings.SortForSearch(matches)

	total := len(matches)
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return domainlistings.SearchResult{Items: matches, Total: total}, nil
}

// BookingRepository holds committed bookings.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return booking.Clone(), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkVersion(booking.ID, booking.Version); err != nil {
		return err
	}
	booking.Version++
	r.items[booking.ID] = booking.Clone()
	return nil
}

func (r *BookingRepository) checkVersion(id domainbooking.BookingID, expected int64) error {
	current, ok := r.items[id]
	switch {
	case !ok && expected == 0:
		return nil
	case !ok || current.Version != expected:
		return domainbooking.ErrConcurrentUpdate
	}
	return nil
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	id := strings.TrimSpace(renterID)
	return r.filter(func(b *domainbooking.Booking) bool { return id != "" && b.RenterID == id }), nil
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return hostID != "" && b.HostID == hostID }), nil
}

func (r *BookingRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	matches := r.filter(func(b *domainbooking.Booking) bool {
		return b.State == domainbooking.StatePendingHostConfirmation && !now.Before(b.HoldExpiresAt)
	})
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].HoldExpiresAt.Before(matches[j].HoldExpiresAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// filter returns clones newest first.
func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if keep(booking) {
			matches = append(matches, booking.Clone())
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainbooking.Repository         = (*BookingRepository)(nil)
)
