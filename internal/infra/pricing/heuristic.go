package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"spacio/internal/app/policies"
	domainlistings "spacio/internal/domain/listings"
)

const SourceHeuristic = "heuristic"

var (
	basePrices = map[domainlistings.Size]decimal.Decimal{
		domainlistings.SizeSmall:  decimal.NewFromInt(60),
		domainlistings.SizeMedium: decimal.NewFromInt(100),
		domainlistings.SizeLarge:  decimal.NewFromInt(140),
	}
	highDemandZips = map[string]struct{}{"95112": {}, "95126": {}}
	lowDemandZips  = map[string]struct{}{"95127": {}, "95128": {}}

	indoorPremium = decimal.NewFromInt(15)
	minFactor     = decimal.RequireFromString("0.9")
	maxFactor     = decimal.RequireFromString("1.2")
)

// Heuristic suggests a price from the size bucket, local demand and whether
// the space is indoors. The result is deterministic.
type Heuristic struct{}

func (Heuristic) Suggest(ctx context.Context, req policies.SuggestionRequest) (policies.PriceSuggestion, error) {
	size, err := domainlistings.ParseSize(string(req.Size))
	if err != nil {
		return policies.PriceSuggestion{}, err
	}
	zip := strings.TrimSpace(req.ZipCode)
	base := basePrices[size]

	price := base
	var factors []string
	if _, ok := highDemandZips[zip]; ok {
		price = price.Mul(decimal.RequireFromString("1.1"))
		factors = append(factors, "+10% high-demand adjustment")
	} else if _, ok := lowDemandZips[zip]; ok {
		price = price.Mul(decimal.RequireFromString("0.9"))
		factors = append(factors, "-10% low-demand adjustment")
	}
	if req.Indoor {
		price = price.Add(indoorPremium)
		factors = append(factors, "+$15 indoor premium")
	}

	area := zip
	if area == "" {
		area = "your area"
	}
	factorText := "no adjustments"
	if len(factors) > 0 {
		factorText = strings.Join(factors, " ")
	}
	suggested, _ := price.Round(2).Float64()
	lo, _ := price.Mul(minFactor).Round(2).Float64()
	hi, _ := price.Mul(maxFactor).Round(2).Float64()
	return policies.PriceSuggestion{
		Suggested: suggested,
		Min:       lo,
		Max:       hi,
		Explanation: fmt.Sprintf("We compared similar %s-size spaces in %s and recommend this rate. Base $%s %s.",
			size, area, base.StringFixed(2), factorText),
		Source: SourceHeuristic,
	}, nil
}

var _ policies.PriceSuggester = Heuristic{}
