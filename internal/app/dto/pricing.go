package dto

import "spacio/internal/app/policies"

type PriceSuggestionView struct {
	SuggestedPrice float64 `json:"suggestedPrice"`
	MinPrice       float64 `json:"minPrice"`
	MaxPrice       float64 `json:"maxPrice"`
	Explanation    string  `json:"explanation"`
	Source         string  `json:"source"`
}

func MapPriceSuggestion(s policies.PriceSuggestion) PriceSuggestionView {
	return PriceSuggestionView{
		SuggestedPrice: s.Suggested,
		MinPrice:       s.Min,
		MaxPrice:       s.Max,
		Explanation:    s.Explanation,
		Source:         s.Source,
	}
}
