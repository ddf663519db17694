package quotes

import (
	"context"
	"errors"
	"time"

	"spacio/internal/app/dto"
	"spacio/internal/app/handlers/support"
	"spacio/internal/app/queries"
	"spacio/internal/app/services/auth"
	"spacio/internal/app/uow"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
)

const getQuoteKey = "quotes.get"

// GetQuoteQuery prices a prospective reservation. Empty dates or a zero
// capacity produce an incomplete response rather than an error.
type GetQuoteQuery struct {
	ListingID     string `validate:"required"`
	StartDate     string
	EndDate       string
	SqftRequested int `validate:"gte=0"`
	AddInsurance  bool
}

func (GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	UoWFactory uow.UoWFactory
	Calculator domainpricing.Calculator
	Clock      func() time.Time
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.QuoteResponse, error) {
	start, err := daterange.ParseOptionalDate(q.StartDate)
	if err != nil {
		return dto.QuoteResponse{}, err
	}
	end, err := daterange.ParseOptionalDate(q.EndDate)
	if err != nil {
		return dto.QuoteResponse{}, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.QuoteResponse{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.QuoteResponse{}, err
	}

	req := domainpricing.QuoteRequest{RequestedCapacity: q.SqftRequested, AddInsurance: q.AddInsurance}
	if start != nil {
		req.StartDate = *start
	}
	if end != nil {
		req.EndDate = *end
	}
	snapshot := listing.Snapshot()
	quote, err := h.Calculator.Quote(snapshot, req)
	if errors.Is(err, domainpricing.ErrIncomplete) {
		return dto.QuoteResponse{Status: dto.QuoteStatusIncomplete}, nil
	}
	if err != nil {
		return dto.QuoteResponse{}, err
	}

	breakdown := dto.MapQuote(quote)
	resp := dto.QuoteResponse{Status: dto.QuoteStatusOK, Quote: &breakdown}

	isHost := false
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		isHost = p.UserID == string(snapshot.Host)
	}
	today := daterange.Date(support.Now(h.Clock))
	for _, r := range domainbooking.CheckBooking(snapshot, req, today, isHost) {
		resp.Rejections = append(resp.Rejections, dto.MapRejection(r))
	}
	if len(resp.Rejections) > 0 {
		resp.Status = dto.QuoteStatusRejected
	}
	return resp, nil
}

var _ queries.Handler[GetQuoteQuery, dto.QuoteResponse] = (*GetQuoteHandler)(nil)
