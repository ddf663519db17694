package policies

import (
	"context"

	domainlistings "spacio/internal/domain/listings"
)

// SuggestionRequest describes a space a host is about to list.
type SuggestionRequest struct {
	Size    domainlistings.Size
	ZipCode string
	Indoor  bool
}

// PriceSuggestion is a monthly price recommendation in major currency units.
type PriceSuggestion struct {
	Suggested   float64
	Min         float64
	Max         float64
	Explanation string
	// Source names the engine that produced the suggestion, e.g. "remote" or "heuristic".
	Source string
}

// PriceSuggester is the external pricing assistant. Its output is advisory only.
type PriceSuggester interface {
	Suggest(ctx context.Context, req SuggestionRequest) (PriceSuggestion, error)
}
