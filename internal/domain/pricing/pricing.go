package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"spacio/internal/domain/listings"
	"spacio/internal/domain/shared/daterange"
	"spacio/internal/domain/shared/money"
)

var (
	// ErrIncomplete means the request lacks dates or capacity; callers show no quote yet.
	ErrIncomplete             = errors.New("pricing: quote request incomplete")
	ErrInvalidListingCapacity = errors.New("pricing: listing capacity is invalid")
	ErrInvalidListingPrice    = errors.New("pricing: listing price is invalid")
)

const (
	monthDays  = 30
	centsScale = 2
)

var (
	hundred      = decimal.NewFromInt(100)
	decMonthDays = decimal.NewFromInt(monthDays)
)

// QuoteRequest is what a renter asks for. Zero dates mean "not chosen yet".
type QuoteRequest struct {
	StartDate         time.Time
	EndDate           time.Time
	RequestedCapacity int
	AddInsurance      bool
}

// Quote is the cost breakdown of a prospective reservation. Every component is
// rounded to cents on its own and Total is their sum.
type Quote struct {
	Days              int
	SpaceRatioPercent int
	BasePrice         money.Money
	ServiceFee        money.Money
	InsuranceFee      money.Money
	Deposit           money.Money
	Total             money.Money
	PolicyVersion     string
	// InsuranceOffered is false when the policy has no insurance rate.
	InsuranceOffered bool
}

// ComputeQuote prices req against the listing snapshot under policy. It has no side effects.
func ComputeQuote(listing listings.PricingSnapshot, req QuoteRequest, policy FeePolicy) (Quote, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() || req.RequestedCapacity <= 0 {
		return Quote{}, ErrIncomplete
	}
	if listing.TotalCapacity <= 0 || listing.AvailableCapacity < 0 || listing.AvailableCapacity > listing.TotalCapacity {
		return Quote{}, ErrInvalidListingCapacity
	}
	if listing.PricePerMonth.IsNegative() || listing.PricePerMonth.Currency == "" {
		return Quote{}, ErrInvalidListingPrice
	}
	currency := listing.PricePerMonth.Currency

	days := daterange.DaysBetween(req.StartDate, req.EndDate)
	requested := decimal.NewFromInt(int64(req.RequestedCapacity))
	total := decimal.NewFromInt(int64(listing.TotalCapacity))

	// price * (requested/total) * (days/30), divided once to keep the fraction exact.
	base := listing.PricePerMonth.Decimal().
		Mul(requested).
		Mul(decimal.NewFromInt(int64(days))).
		Div(total.Mul(decMonthDays)).
		Round(centsScale)
	fee := base.Mul(policy.ServiceFeeRate).Round(centsScale)
	insurance := decimal.Zero
	if req.AddInsurance {
		insurance = requested.Mul(policy.InsuranceRatePerUnit).Round(centsScale)
	}
	deposit := policy.RefundableDeposit.Round(centsScale)

	q := Quote{
		Days:              days,
		SpaceRatioPercent: int(requested.Mul(hundred).Div(total).Round(0).IntPart()),
		PolicyVersion:     policy.Version,
		InsuranceOffered:  policy.InsuranceOffered(),
	}
	var err error
	for _, c := range []struct {
		dst *money.Money
		val decimal.Decimal
	}{
		{&q.BasePrice, base},
		{&q.ServiceFee, fee},
		{&q.InsuranceFee, insurance},
		{&q.Deposit, deposit},
	} {
		if *c.dst, err = money.FromDecimal(c.val, currency); err != nil {
			return Quote{}, err
		}
	}
	q.Total = money.Zero(currency)
	for _, part := range []money.Money{q.BasePrice, q.ServiceFee, q.InsuranceFee, q.Deposit} {
		if q.Total, err = q.Total.Add(part); err != nil {
			return Quote{}, err
		}
	}
	return q, nil
}

// Calculator quotes listings under the fee policy each listing was created with.
type Calculator struct {
	Policies *PolicyBook
}

func NewCalculator(policies *PolicyBook) Calculator {
	return Calculator{Policies: policies}
}

func (c Calculator) Quote(listing listings.PricingSnapshot, req QuoteRequest) (Quote, error) {
	policy, err := c.Policies.Resolve(listing.PolicyVersion)
	if err != nil {
		return Quote{}, err
	}
	return ComputeQuote(listing, req, policy)
}
