package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	appoutbox "spacio/internal/app/outbox"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
)

var (
	// ErrFactoryMisconfigured indicates missing repositories.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo *ListingRepository
	BookingRepo  *BookingRepository
	OutboxStore  *Outbox
}

// NewFactory returns a factory over empty stores.
func NewFactory() Factory {
	return Factory{
		ListingsRepo: NewListingRepository(),
		BookingRepo:  NewBookingRepository(),
		OutboxStore:  NewOutbox(),
	}
}

// Begin starts a unit that stages writes and applies them atomically on Commit.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingRepo == nil || f.OutboxStore == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		factory:  f,
		readOnly: opts.ReadOnly,
		listings: make(map[domainlistings.ListingID]*stagedListing),
		bookings: make(map[domainbooking.BookingID]*stagedBooking),
	}, nil
}

type stagedListing struct {
	entity *domainlistings.Listing
	base   int64
}

type stagedBooking struct {
	entity *domainbooking.Booking
	base   int64
}

// Unit reads committed state, keeps its own writes private and checks every
// staged aggregate's version at commit.
type Unit struct {
	factory  Factory
	readOnly bool

	mu       sync.Mutex
	listings map[domainlistings.ListingID]*stagedListing
	bookings map[domainbooking.BookingID]*stagedBooking
	records  []appoutbox.EventRecord
	done     bool
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return unitListings{u: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return unitBookings{u: u}
}

func (u *Unit) Outbox() appoutbox.Outbox {
	return unitOutbox{u: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if u.readOnly {
		return nil
	}

	lr, br := u.factory.ListingsRepo, u.factory.BookingRepo
	lr.mu.Lock()
	defer lr.mu.Unlock()
	br.mu.Lock()
	defer br.mu.Unlock()

	for id, staged := range u.listings {
		if err := lr.checkVersion(id, staged.base); err != nil {
			return err
		}
	}
	for id, staged := range u.bookings {
		if err := br.checkVersion(id, staged.base); err != nil {
			return err
		}
	}
	for id, staged := range u.listings {
		lr.items[id] = staged.entity
	}
	for id, staged := range u.bookings {
		br.items[id] = staged.entity
	}
	u.factory.OutboxStore.append(u.records...)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.listings = nil
	u.bookings = nil
	u.records = nil
	return nil
}

type unitListings struct{ u *Unit }

func (r unitListings) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.u.mu.Lock()
	staged, ok := r.u.listings[id]
	r.u.mu.Unlock()
	if ok {
		return staged.entity.Clone(), nil
	}
	return r.u.factory.ListingsRepo.ByID(ctx, id)
}

func (r unitListings) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if r.u.done {
		return ErrUnitClosed
	}
	base := listing.Version
	if staged, ok := r.u.listings[listing.ID]; ok {
		if staged.entity.Version != listing.Version {
			return domainlistings.ErrConcurrentUpdate
		}
		base = staged.base
	}
	listing.Version++
	r.u.listings[listing.ID] = &stagedListing{entity: listing.Clone(), base: base}
	return nil
}

func (r unitListings) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	return r.u.factory.ListingsRepo.Search(ctx, params)
}

type unitBookings struct{ u *Unit }

func (r unitBookings) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.u.mu.Lock()
	staged, ok := r.u.bookings[id]
	r.u.mu.Unlock()
	if ok {
		return staged.entity.Clone(), nil
	}
	return r.u.factory.BookingRepo.ByID(ctx, id)
}

func (r unitBookings) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.u.mu.Lock()
	defer r.u.mu.Unlock()
	if r.u.done {
		return ErrUnitClosed
	}
	base := booking.Version
	if staged, ok := r.u.bookings[booking.ID]; ok {
		if staged.entity.Version != booking.Version {
			return domainbooking.ErrConcurrentUpdate
		}
		base = staged.base
	}
	booking.Version++
	r.u.bookings[booking.ID] = &stagedBooking{entity: booking.Clone(), base: base}
	return nil
}

func (r unitBookings) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.u.factory.BookingRepo.ListByRenter(ctx, renterID)
}

func (r unitBookings) ListByHost(ctx context.Context, hostID domainlistings.HostID) ([]*domainbooking.Booking, error) {
	return r.u.factory.BookingRepo.ListByHost(ctx, hostID)
}

func (r unitBookings) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domainbooking.Booking, error) {
	return r.u.factory.BookingRepo.ListExpiredHolds(ctx, now, limit)
}

type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.u.mu.Lock()
	defer o.u.mu.Unlock()
	if o.u.done {
		return ErrUnitClosed
	}
	o.u.records = append(o.u.records, record)
	return nil
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
