package listings

import (
	"context"
	"strings"

	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/queries"
	"spacio/internal/app/uow"
	domainlistings "spacio/internal/domain/listings"
)

const (
	searchListingsKey   = "listings.search"
	listHostListingsKey = "listings.host"
)

// SearchListingsQuery filters the public catalog. Zero values disable a filter.
type SearchListingsQuery struct {
	ZipCode  string  `validate:"omitempty,max=10"`
	PriceMin float64 `validate:"gte=0"`
	PriceMax float64 `validate:"gte=0"`
	Size     string  `validate:"omitempty,oneof=S M L s m l"`
	Limit    int     `validate:"gte=0"`
}

func (SearchListingsQuery) Key() string { return searchListingsKey }

type SearchListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingCollection, error) {
	return search(ctx, h.UoWFactory, domainlistings.SearchParams{
		ZipCode:       q.ZipCode,
		PriceMinCents: toCents(q.PriceMin),
		PriceMaxCents: toCents(q.PriceMax),
		Size:          domainlistings.Size(strings.ToUpper(q.Size)),
		Limit:         q.Limit,
	})
}

// ListHostListingsQuery returns the caller's own listings.
type ListHostListingsQuery struct {
	HostID string `validate:"required"`
}

func (ListHostListingsQuery) Key() string { return listHostListingsKey }

func (ListHostListingsQuery) RequiresHost() bool { return true }

type ListHostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostListingsHandler) Handle(ctx context.Context, q ListHostListingsQuery) (dto.ListingCollection, error) {
	return search(ctx, h.UoWFactory, domainlistings.SearchParams{Host: domainlistings.HostID(q.HostID)})
}

func search(ctx context.Context, factory uow.UoWFactory, params domainlistings.SearchParams) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, factory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	result, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListings(result.Items, result.Total), nil
}

func toCents(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(v*100 + 0.5)
}

var (
	_ queries.Handler[SearchListingsQuery, dto.ListingCollection]   = (*SearchListingsHandler)(nil)
	_ queries.Handler[ListHostListingsQuery, dto.ListingCollection] = (*ListHostListingsHandler)(nil)
)
