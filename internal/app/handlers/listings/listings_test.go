package listings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	"spacio/internal/app/middleware"
	"spacio/internal/app/services/auth"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/infra/storage/memory"
)

func newBus(t *testing.T, store memory.Factory) commands.Bus {
	t.Helper()
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, commands.Handler[CreateListingCommand, *dto.ListingView](&CreateListingHandler{
		Policies: domainpricing.MustPolicyBook(domainpricing.PolicyV2),
		Currency: "USD",
		Clock:    func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) },
	}))
	return middleware.ChainCommands(bus,
		middleware.Authorization(auth.Authorizer{}),
		middleware.Transaction(store, nil),
	)
}

func create(ctx context.Context, bus commands.Bus, cmd CreateListingCommand) (*dto.ListingView, error) {
	return commands.Dispatch[CreateListingCommand, *dto.ListingView](ctx, bus, cmd)
}

func TestCreateListing(t *testing.T) {
	store := memory.NewFactory()
	bus := newBus(t, store)
	host := auth.WithPrincipal(context.Background(), auth.Principal{UserID: "host-1", IsHost: true})

	view, err := create(host, bus, CreateListingCommand{
		HostID:        "host-1",
		Title:         "Climate controlled unit",
		Size:          "m",
		PricePerMonth: 149.99,
		SizeSqft:      120,
		ZipCode:       "95112",
	})
	require.NoError(t, err)
	assert.Equal(t, "M", view.Size)
	assert.Equal(t, 120, view.AvailableSqft)
	assert.InDelta(t, 149.99, view.PricePerMonth, 0.0001)
	assert.InDelta(t, 4.7, view.Rating, 0.0001)
	assert.Equal(t, domainpricing.PolicyV2, view.PolicyVersion)
	assert.True(t, view.Availability)

	docs := store.OutboxStore.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "listing.created", docs[0].Name)

	renter := auth.WithPrincipal(context.Background(), auth.Principal{UserID: "renter-1"})
	_, err = create(renter, bus, CreateListingCommand{HostID: "renter-1", Title: "x", Size: "S", PricePerMonth: 10, SizeSqft: 10})
	assert.ErrorIs(t, err, auth.ErrHostRequired)
}

func TestSearchListings(t *testing.T) {
	store := memory.NewFactory()
	bus := newBus(t, store)
	host := auth.WithPrincipal(context.Background(), auth.Principal{UserID: "host-1", IsHost: true})

	for _, c := range []CreateListingCommand{
		{HostID: "host-1", Title: "A", Size: "S", PricePerMonth: 50, SizeSqft: 40, ZipCode: "95126", Rating: 4.9},
		{HostID: "host-1", Title: "B", Size: "M", PricePerMonth: 90, SizeSqft: 80, ZipCode: "95112", Rating: 4.1},
		{HostID: "host-1", Title: "C", Size: "L", PricePerMonth: 200, SizeSqft: 200, ZipCode: "95128", Rating: 5.0},
	} {
		_, err := create(host, bus, c)
		require.NoError(t, err)
	}

	search := &SearchListingsHandler{UoWFactory: store}
	res, err := search.Handle(context.Background(), SearchListingsQuery{ZipCode: "95112", PriceMax: 150})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "B", res.Items[0].Title)
	assert.Equal(t, 1, res.Total)

	res, err = search.Handle(context.Background(), SearchListingsQuery{ZipCode: "10001"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	res, err = search.Handle(context.Background(), SearchListingsQuery{PriceMax: 150})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "A", res.Items[0].Title)
	assert.Equal(t, "B", res.Items[1].Title)

	res, err = search.Handle(context.Background(), SearchListingsQuery{Size: "l"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "C", res.Items[0].Title)

	mine := &ListHostListingsHandler{UoWFactory: store}
	own, err := mine.Handle(context.Background(), ListHostListingsQuery{HostID: "host-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, own.Total)

	get := &GetListingHandler{UoWFactory: store}
	one, err := get.Handle(context.Background(), GetListingQuery{ListingID: res.Items[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "C", one.Title)
}
