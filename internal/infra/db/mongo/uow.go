package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	appoutbox "spacio/internal/app/outbox"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	infraoutbox "spacio/internal/infra/outbox"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo *ListingRepository
	BookingRepo  *BookingRepository
	OutboxStore  *infraoutbox.Store
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction. Repositories join it through the
// session context installed by InjectContext.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.ListingsRepo == nil || f.BookingRepo == nil || f.OutboxStore == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(readconcern.Snapshot()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:  session,
		readOnly: opts.ReadOnly,
		listings: f.ListingsRepo,
		booking:  f.BookingRepo,
		outbox:   f.OutboxStore,
	}, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool
	done     bool

	listings *ListingRepository
	booking  *BookingRepository
	outbox   *infraoutbox.Store
}

func (u *Unit) Listings() domainlistings.ListingRepository {
	return u.listings
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.booking
}

func (u *Unit) Outbox() appoutbox.Outbox {
	return u.outbox
}

// Commit maps write conflicts raised at commit time to the listing conflict
// error so the retry middleware picks them up.
func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return u.session.AbortTransaction(ctx)
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("mongo: commit: %w", domainlistings.ErrConcurrentUpdate)
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
