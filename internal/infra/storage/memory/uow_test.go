package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "spacio/internal/app/outbox"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	"spacio/internal/domain/shared/money"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedListing(t *testing.T, f Factory, sqft int) *domainlistings.Listing {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:            "lst-1",
		Host:          "host-1",
		Title:         "Garage bay",
		Size:          domainlistings.SizeMedium,
		PricePerMonth: money.Must(10000, "USD"),
		TotalCapacity: sqft,
		PolicyVersion: "v2",
		Now:           testNow,
	})
	require.NoError(t, err)
	require.NoError(t, f.ListingsRepo.Save(context.Background(), l))
	return l
}

func TestUnit_WritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seedListing(t, f, 100)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	l, err := unit.Listings().ByID(ctx, "lst-1")
	require.NoError(t, err)
	require.NoError(t, l.HoldCapacity(40, "b-1", testNow))
	require.NoError(t, unit.Listings().Save(ctx, l))
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e-1", Name: "listing.capacity_held", Payload: []byte(`{}`)}))

	staged, err := unit.Listings().ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 60, staged.AvailableCapacity)

	committed, err := f.ListingsRepo.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 100, committed.AvailableCapacity)
	assert.Empty(t, f.OutboxStore.Documents())

	require.NoError(t, unit.Commit(ctx))
	committed, err = f.ListingsRepo.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 60, committed.AvailableCapacity)
	assert.Equal(t, int64(2), committed.Version)
	require.Len(t, f.OutboxStore.Documents(), 1)
}

func TestUnit_CommitDetectsConflict(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seedListing(t, f, 100)

	first, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	second, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	for _, unit := range []uow.UnitOfWork{first, second} {
		l, err := unit.Listings().ByID(ctx, "lst-1")
		require.NoError(t, err)
		require.NoError(t, l.HoldCapacity(60, "b", testNow))
		require.NoError(t, unit.Listings().Save(ctx, l))
		require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "e", Name: "listing.capacity_held"}))
	}

	require.NoError(t, first.Commit(ctx))
	err = second.Commit(ctx)
	assert.ErrorIs(t, err, domainlistings.ErrConcurrentUpdate)

	committed, err := f.ListingsRepo.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 40, committed.AvailableCapacity)
	assert.Len(t, f.OutboxStore.Documents(), 1, "losing unit must not publish events")
}

func TestUnit_RepeatedSaveKeepsBaseVersion(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seedListing(t, f, 100)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		l, err := unit.Listings().ByID(ctx, "lst-1")
		require.NoError(t, err)
		require.NoError(t, l.HoldCapacity(10, "b", testNow))
		require.NoError(t, unit.Listings().Save(ctx, l))
	}
	require.NoError(t, unit.Commit(ctx))

	committed, err := f.ListingsRepo.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 70, committed.AvailableCapacity)
}

func TestUnit_StaleSaveWithinUnit(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seedListing(t, f, 100)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	a, err := unit.Listings().ByID(ctx, "lst-1")
	require.NoError(t, err)
	b, err := unit.Listings().ByID(ctx, "lst-1")
	require.NoError(t, err)
	require.NoError(t, unit.Listings().Save(ctx, a))
	assert.ErrorIs(t, unit.Listings().Save(ctx, b), domainlistings.ErrConcurrentUpdate)
}

func TestUnit_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	seedListing(t, f, 100)

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	l, err := unit.Listings().ByID(ctx, "lst-1")
	require.NoError(t, err)
	require.NoError(t, l.HoldCapacity(10, "b", testNow))
	require.NoError(t, unit.Listings().Save(ctx, l))
	require.NoError(t, unit.Rollback(ctx))
	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)

	committed, err := f.ListingsRepo.ByID(ctx, "lst-1")
	require.NoError(t, err)
	assert.Equal(t, 100, committed.AvailableCapacity)
}

func TestBookingRepository_ListExpiredHolds(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	for i, created := range []time.Time{testNow.Add(-48 * time.Hour), testNow.Add(-30 * time.Hour), testNow} {
		b := &domainbooking.Booking{
			ID:            domainbooking.BookingID([]string{"a", "b", "c"}[i]),
			RenterID:      "renter",
			State:         domainbooking.StatePendingHostConfirmation,
			CreatedAt:     created,
			HoldExpiresAt: created.Add(domainbooking.DefaultHoldTTL),
		}
		require.NoError(t, repo.Save(ctx, b))
	}

	due, err := repo.ListExpiredHolds(ctx, testNow, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, domainbooking.BookingID("a"), due[0].ID)

	mine, err := repo.ListByRenter(ctx, "renter")
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, domainbooking.BookingID("c"), mine[0].ID)
}

func TestOutbox_ClaimAndRetry(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "e-1", Name: "booking.requested"}))

	doc, err := box.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, doc)
	again, err := box.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, box.MarkFailed(ctx, doc.ID, time.Now().Add(-time.Second), "broker down"))
	retry, err := box.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, retry)
	assert.Equal(t, 1, retry.Attempts)

	require.NoError(t, box.MarkSent(ctx, retry.ID))
	docs := box.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "SENT", docs[0].State)
}

func TestListingRepository_SearchFiltersZip(t *testing.T) {
	ctx := context.Background()
	f := NewFactory()
	for _, seed := range []struct {
		id, zip string
		rating  float64
	}{{"lst-a", "95112", 4.2}, {"lst-b", "10001", 4.9}, {"lst-c", "95112", 4.8}} {
		l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:            domainlistings.ListingID(seed.id),
			Host:          "host-1",
			Title:         seed.id,
			Size:          domainlistings.SizeSmall,
			PricePerMonth: money.Must(5000, "USD"),
			TotalCapacity: 50,
			ZipCode:       seed.zip,
			Rating:        seed.rating,
			Now:           testNow,
		})
		require.NoError(t, err)
		require.NoError(t, f.ListingsRepo.Save(ctx, l))
	}

	res, err := f.ListingsRepo.Search(ctx, domainlistings.SearchParams{ZipCode: "95112"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, domainlistings.ListingID("lst-c"), res.Items[0].ID)
	assert.Equal(t, domainlistings.ListingID("lst-a"), res.Items[1].ID)

	res, err = f.ListingsRepo.Search(ctx, domainlistings.SearchParams{ZipCode: "94000"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
