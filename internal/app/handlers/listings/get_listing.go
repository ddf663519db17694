package listings

import (
	"context"

	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/queries"
	"spacio/internal/app/uow"
	domainlistings "spacio/internal/domain/listings"
)

const getListingKey = "listings.get"

type GetListingQuery struct {
	ListingID string `validate:"required"`
}

func (GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingView, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingView{}, err
	}
	return dto.MapListing(listing), nil
}

var _ queries.Handler[GetListingQuery, dto.ListingView] = (*GetListingHandler)(nil)
