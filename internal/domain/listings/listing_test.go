package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacio/internal/domain/shared/money"
)

func newTestListing(t *testing.T) *Listing {
	t.Helper()
	from := time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC)
	l, err := NewListing(CreateListingParams{
		ID:            "lst-1",
		Host:          "host-1",
		Title:         "  Dry garage bay  ",
		Size:          SizeMedium,
		PricePerMonth: money.Must(10000, "USD"),
		TotalCapacity: 100,
		AvailableFrom: &from,
		ZipCode:       "95112",
		PolicyVersion: "v2",
		Now:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return l
}

func TestNewListing_Defaults(t *testing.T) {
	l := newTestListing(t)

	assert.Equal(t, "Dry garage bay", l.Title)
	assert.Equal(t, 100, l.AvailableCapacity)
	assert.Equal(t, DefaultRating, l.Rating)
	require.NotNil(t, l.AvailableFrom)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *l.AvailableFrom)

	pending := l.PendingEvents()
	require.Len(t, pending, 1)
	assert.Equal(t, "listing.created", pending[0].EventName())
}

func TestNewListing_Validation(t *testing.T) {
	base := CreateListingParams{
		ID: "lst", Host: "h", Title: "t", Size: SizeSmall,
		PricePerMonth: money.Must(100, "USD"), TotalCapacity: 10,
	}

	p := base
	p.TotalCapacity = 0
	_, err := NewListing(p)
	assert.ErrorIs(t, err, ErrCapacityRequired)

	p = base
	p.PricePerMonth = money.Zero("USD")
	_, err = NewListing(p)
	assert.ErrorIs(t, err, ErrPriceRequired)

	p = base
	p.Size = "XL"
	_, err = NewListing(p)
	assert.ErrorIs(t, err, ErrInvalidSize)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p = base
	p.AvailableFrom, p.AvailableTo = &from, &to
	_, err = NewListing(p)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestHoldAndReleaseCapacity(t *testing.T) {
	l := newTestListing(t)
	l.ClearEvents()
	now := time.Now()

	require.NoError(t, l.HoldCapacity(60, "b1", now))
	assert.Equal(t, 40, l.AvailableCapacity)

	assert.ErrorIs(t, l.HoldCapacity(41, "b2", now), ErrHoldExceeds)
	assert.Equal(t, 40, l.AvailableCapacity)

	require.NoError(t, l.ReleaseCapacity(60, "b1", now))
	assert.Equal(t, 100, l.AvailableCapacity)
	assert.ErrorIs(t, l.ReleaseCapacity(1, "b1", now), ErrReleaseExceeds)
	assert.ErrorIs(t, l.HoldCapacity(0, "b3", now), ErrNonPositiveCapacity)

	names := []string{}
	for _, evt := range l.PendingEvents() {
		names = append(names, evt.EventName())
	}
	assert.Equal(t, []string{"listing.capacity_held", "listing.capacity_released"}, names)
}

func TestSnapshotAndCloneAreDetached(t *testing.T) {
	l := newTestListing(t)
	snap := l.Snapshot()
	clone := l.Clone()

	*l.AvailableFrom = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	l.AvailableCapacity = 1

	assert.Equal(t, 2025, snap.AvailableFrom.Year())
	assert.Equal(t, 2025, clone.AvailableFrom.Year())
	assert.Equal(t, 100, clone.AvailableCapacity)
	assert.Empty(t, clone.PendingEvents())
}

func TestSearchOrdering(t *testing.T) {
	mk := func(id, zip string, rating float64) *Listing {
		return &Listing{ID: ListingID(id), ZipCode: zip, Rating: rating}
	}
	items := []*Listing{mk("a", "95000", 5), mk("b", "95112", 4.1), mk("c", "95112", 4.9), mk("d", "95001", 4.8)}

	SortForSearch(items)

	ids := []ListingID{}
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []ListingID{"a", "c", "d", "b"}, ids)
}

func TestSearchParams(t *testing.T) {
	p := SearchParams{PriceMinCents: 5000, PriceMaxCents: 1000, Size: " m ", Limit: 1000}.Normalized()
	assert.Equal(t, int64(0), p.PriceMaxCents)
	assert.Equal(t, SizeMedium, p.Size)
	assert.Equal(t, 100, p.Limit)

	l := newTestListing(t)
	assert.True(t, p.Matches(l))
	assert.False(t, SearchParams{PriceMaxCents: 5000}.Matches(l))
	assert.False(t, SearchParams{Size: SizeLarge}.Matches(l))
	assert.True(t, SearchParams{ZipCode: "95112"}.Matches(l))
	assert.False(t, SearchParams{ZipCode: "10001"}.Matches(l))
}
