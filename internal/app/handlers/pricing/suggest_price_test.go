package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"spacio/internal/app/policies"
	domainlistings "spacio/internal/domain/listings"
)

type suggesterMock struct {
	mock.Mock
}

func (m *suggesterMock) Suggest(ctx context.Context, req policies.SuggestionRequest) (policies.PriceSuggestion, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(policies.PriceSuggestion), args.Error(1)
}

func TestSuggestPrice_NormalizesSize(t *testing.T) {
	m := &suggesterMock{}
	m.On("Suggest", mock.Anything, policies.SuggestionRequest{Size: domainlistings.SizeLarge, ZipCode: "95127", Indoor: true}).
		Return(policies.PriceSuggestion{Suggested: 141, Min: 126.9, Max: 169.2, Source: "remote"}, nil).Once()

	h := &SuggestPriceHandler{Suggester: m}
	view, err := h.Handle(context.Background(), SuggestPriceQuery{Size: "l", ZipCode: "95127", Indoor: true})
	require.NoError(t, err)
	assert.Equal(t, 141.0, view.SuggestedPrice)
	assert.Equal(t, "remote", view.Source)
	m.AssertExpectations(t)
}

func TestSuggestPrice_Errors(t *testing.T) {
	_, err := (&SuggestPriceHandler{}).Handle(context.Background(), SuggestPriceQuery{Size: "M"})
	assert.ErrorIs(t, err, ErrSuggesterUnavailable)

	m := &suggesterMock{}
	h := &SuggestPriceHandler{Suggester: m}
	_, err = h.Handle(context.Background(), SuggestPriceQuery{Size: "XL"})
	assert.ErrorIs(t, err, domainlistings.ErrInvalidSize)

	boom := errors.New("upstream down")
	m.On("Suggest", mock.Anything, mock.Anything).Return(policies.PriceSuggestion{}, boom).Once()
	_, err = h.Handle(context.Background(), SuggestPriceQuery{Size: "S"})
	assert.ErrorIs(t, err, boom)
}
