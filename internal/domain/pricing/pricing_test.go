package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spacio/internal/domain/listings"
	"spacio/internal/domain/shared/money"
)

var day0 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func snapshot() listings.PricingSnapshot {
	return listings.PricingSnapshot{
		ListingID:         "lst-1",
		PricePerMonth:     money.Must(10000, "USD"),
		TotalCapacity:     100,
		AvailableCapacity: 100,
		PolicyVersion:     PolicyV2,
	}
}

func currentPolicy(t *testing.T) FeePolicy {
	t.Helper()
	p, err := MustPolicyBook("").Resolve(PolicyV2)
	require.NoError(t, err)
	return p
}

func request(days, sqft int, insurance bool) QuoteRequest {
	return QuoteRequest{
		StartDate:         day0,
		EndDate:           day0.AddDate(0, 0, days),
		RequestedCapacity: sqft,
		AddInsurance:      insurance,
	}
}

func TestComputeQuote_HalfSpaceFullMonth(t *testing.T) {
	q, err := ComputeQuote(snapshot(), request(30, 50, false), currentPolicy(t))
	require.NoError(t, err)

	assert.Equal(t, 30, q.Days)
	assert.Equal(t, 50, q.SpaceRatioPercent)
	assert.Equal(t, int64(5000), q.BasePrice.Amount)
	assert.Equal(t, int64(1000), q.ServiceFee.Amount)
	assert.Equal(t, int64(0), q.InsuranceFee.Amount)
	assert.Equal(t, int64(6000), q.Total.Amount)
	assert.Equal(t, "USD", q.Total.Currency)
	assert.Equal(t, PolicyV2, q.PolicyVersion)
	assert.True(t, q.InsuranceOffered)
}

func TestComputeQuote_CenturiesLongRange(t *testing.T) {
	req := QuoteRequest{
		StartDate:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC),
		RequestedCapacity: 50,
	}
	q, err := ComputeQuote(snapshot(), req, currentPolicy(t))
	require.NoError(t, err)

	assert.Equal(t, 136965, q.Days)
	assert.Equal(t, int64(22827500), q.BasePrice.Amount)
	assert.Equal(t, int64(4565500), q.ServiceFee.Amount)
	assert.Equal(t, int64(27393000), q.Total.Amount)
}

func TestComputeQuote_WithInsurance(t *testing.T) {
	q, err := ComputeQuote(snapshot(), request(30, 50, true), currentPolicy(t))
	require.NoError(t, err)

	assert.Equal(t, int64(750), q.InsuranceFee.Amount)
	assert.Equal(t, int64(6750), q.Total.Amount)
}

func TestComputeQuote_SameDayChargesOneDay(t *testing.T) {
	q, err := ComputeQuote(snapshot(), request(0, 30, false), currentPolicy(t))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Days)
	// 100 * 0.3 / 30 = 1.00
	assert.Equal(t, int64(100), q.BasePrice.Amount)

	inverted := QuoteRequest{StartDate: day0, EndDate: day0.AddDate(0, 0, -5), RequestedCapacity: 30}
	q, err = ComputeQuote(snapshot(), inverted, currentPolicy(t))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Days)
}

func TestComputeQuote_IgnoresTimeOfDay(t *testing.T) {
	req := QuoteRequest{
		StartDate:         day0.Add(23 * time.Hour),
		EndDate:           day0.AddDate(0, 0, 2).Add(time.Hour),
		RequestedCapacity: 10,
	}
	q, err := ComputeQuote(snapshot(), req, currentPolicy(t))
	require.NoError(t, err)
	assert.Equal(t, 2, q.Days)
}

func TestComputeQuote_Incomplete(t *testing.T) {
	policy := currentPolicy(t)
	cases := map[string]QuoteRequest{
		"no start":    {EndDate: day0, RequestedCapacity: 10},
		"no end":      {StartDate: day0, RequestedCapacity: 10},
		"no capacity": {StartDate: day0, EndDate: day0},
		"negative":    {StartDate: day0, EndDate: day0, RequestedCapacity: -1},
	}
	for name, req := range cases {
		_, err := ComputeQuote(snapshot(), req, policy)
		assert.ErrorIs(t, err, ErrIncomplete, name)
	}
}

func TestComputeQuote_InvalidListing(t *testing.T) {
	policy := currentPolicy(t)

	s := snapshot()
	s.TotalCapacity = 0
	_, err := ComputeQuote(s, request(30, 10, false), policy)
	assert.ErrorIs(t, err, ErrInvalidListingCapacity)

	s = snapshot()
	s.AvailableCapacity = -3
	_, err = ComputeQuote(s, request(30, 10, false), policy)
	assert.ErrorIs(t, err, ErrInvalidListingCapacity)

	s = snapshot()
	s.PricePerMonth = money.Must(-1, "USD")
	_, err = ComputeQuote(s, request(30, 10, false), policy)
	assert.ErrorIs(t, err, ErrInvalidListingPrice)
}

func TestComputeQuote_MonotonicInDays(t *testing.T) {
	policy := currentPolicy(t)
	s := snapshot()
	s.PricePerMonth = money.Must(12345, "USD")
	prev := int64(-1)
	for days := 1; days <= 120; days++ {
		q, err := ComputeQuote(s, request(days, 37, true), policy)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, q.BasePrice.Amount, prev, "days=%d", days)
		prev = q.BasePrice.Amount
	}
}

func TestComputeQuote_LinearInCapacity(t *testing.T) {
	policy := currentPolicy(t)
	for _, sqft := range []int{5, 10, 25, 50} {
		single, err := ComputeQuote(snapshot(), request(30, sqft, false), policy)
		require.NoError(t, err)
		double, err := ComputeQuote(snapshot(), request(30, sqft*2, false), policy)
		require.NoError(t, err)
		assert.Equal(t, single.BasePrice.Amount*2, double.BasePrice.Amount, "sqft=%d", sqft)
	}
}

func TestComputeQuote_TotalIsSumOfRoundedComponents(t *testing.T) {
	policy := currentPolicy(t)
	s := snapshot()
	s.PricePerMonth = money.Must(9999, "USD")
	s.TotalCapacity = 7
	s.AvailableCapacity = 7
	for days := 1; days <= 45; days++ {
		for sqft := 1; sqft <= 7; sqft++ {
			q, err := ComputeQuote(s, request(days, sqft, sqft%2 == 0), policy)
			require.NoError(t, err)
			sum := q.BasePrice.Amount + q.ServiceFee.Amount + q.InsuranceFee.Amount + q.Deposit.Amount
			assert.Equal(t, sum, q.Total.Amount)
			assert.False(t, q.Total.IsNegative())
		}
	}
}

func TestComputeQuote_Idempotent(t *testing.T) {
	policy := currentPolicy(t)
	a, err := ComputeQuote(snapshot(), request(17, 33, true), policy)
	require.NoError(t, err)
	b, err := ComputeQuote(snapshot(), request(17, 33, true), policy)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeQuote_NoInsuranceMeansZero(t *testing.T) {
	policy := currentPolicy(t)
	for _, sqft := range []int{1, 50, 100} {
		q, err := ComputeQuote(snapshot(), request(10, sqft, false), policy)
		require.NoError(t, err)
		assert.True(t, q.InsuranceFee.IsZero())
	}
}

func TestComputeQuote_RoundsEachComponent(t *testing.T) {
	// 100 * 1/3 * 1/30 = 1.1111 -> 1.11; fee 0.222 -> 0.22
	s := snapshot()
	s.TotalCapacity = 3
	s.AvailableCapacity = 3
	q, err := ComputeQuote(s, request(1, 1, false), currentPolicy(t))
	require.NoError(t, err)
	assert.Equal(t, int64(111), q.BasePrice.Amount)
	assert.Equal(t, int64(22), q.ServiceFee.Amount)
	assert.Equal(t, int64(133), q.Total.Amount)
	assert.Equal(t, 33, q.SpaceRatioPercent)
}

func TestCalculator_UsesListingPolicyEpoch(t *testing.T) {
	calc := NewCalculator(MustPolicyBook(PolicyV2))
	s := snapshot()
	s.PolicyVersion = PolicyV1

	q, err := calc.Quote(s, request(30, 50, true))
	require.NoError(t, err)
	assert.Equal(t, int64(5000), q.BasePrice.Amount)
	assert.Equal(t, int64(500), q.ServiceFee.Amount)
	assert.Equal(t, int64(0), q.InsuranceFee.Amount)
	assert.Equal(t, int64(5000), q.Deposit.Amount)
	assert.Equal(t, int64(10500), q.Total.Amount)
	assert.Equal(t, PolicyV1, q.PolicyVersion)
	assert.False(t, q.InsuranceOffered)

	s.PolicyVersion = "v9"
	_, err = calc.Quote(s, request(30, 50, true))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestPolicyBook_Overrides(t *testing.T) {
	book, err := NewPolicyBook("v3", FeePolicy{
		Version:              "v3",
		ServiceFeeRate:       decimal.RequireFromString("0.25"),
		InsuranceRatePerUnit: decimal.RequireFromString("0.10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "v3", book.Current().Version)
	for _, v := range []string{PolicyV1, PolicyV2} {
		_, err := book.Resolve(v)
		assert.NoError(t, err, v)
	}

	p, err := book.Resolve("")
	require.NoError(t, err)
	assert.True(t, p.InsuranceOffered())

	_, err = NewPolicyBook("nope")
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = NewPolicyBook("", FeePolicy{Version: "bad", ServiceFeeRate: decimal.NewFromInt(-1)})
	assert.Error(t, err)
}
