package uow

import (
	"context"

	"spacio/internal/app/outbox"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
)

// UnitOfWork coordinates repositories and the outbox inside a transaction boundary.
// Writes become visible to other units only after Commit.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Bookings() domainbooking.Repository
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
