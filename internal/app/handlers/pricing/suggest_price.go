package pricing

import (
	"context"
	"errors"

	"spacio/internal/app/dto"
	"spacio/internal/app/policies"
	"spacio/internal/app/queries"
	domainlistings "spacio/internal/domain/listings"
)

const suggestPriceKey = "pricing.suggest"

var ErrSuggesterUnavailable = errors.New("pricing: suggester not configured")

// SuggestPriceQuery asks for a monthly price recommendation for a new listing.
type SuggestPriceQuery struct {
	Size    string `validate:"required,oneof=S M L s m l"`
	ZipCode string `validate:"omitempty,max=10"`
	Indoor  bool
}

func (SuggestPriceQuery) Key() string { return suggestPriceKey }

func (SuggestPriceQuery) RequiresHost() bool { return true }

type SuggestPriceHandler struct {
	Suggester policies.PriceSuggester
}

func (h *SuggestPriceHandler) Handle(ctx context.Context, q SuggestPriceQuery) (dto.PriceSuggestionView, error) {
	if h.Suggester == nil {
		return dto.PriceSuggestionView{}, ErrSuggesterUnavailable
	}
	size, err := domainlistings.ParseSize(q.Size)
	if err != nil {
		return dto.PriceSuggestionView{}, err
	}
	suggestion, err := h.Suggester.Suggest(ctx, policies.SuggestionRequest{
		Size:    size,
		ZipCode: q.ZipCode,
		Indoor:  q.Indoor,
	})
	if err != nil {
		return dto.PriceSuggestionView{}, err
	}
	return dto.MapPriceSuggestion(suggestion), nil
}

var _ queries.Handler[SuggestPriceQuery, dto.PriceSuggestionView] = (*SuggestPriceHandler)(nil)
