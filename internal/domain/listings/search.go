package listings

import (
	"sort"
	"strings"
)

const maxSearchLimit = 100

// SearchParams describe catalog filters. Zero values disable a filter.
type SearchParams struct {
	Host          HostID
	ZipCode       string
	PriceMinCents int64
	PriceMaxCents int64
	Size          Size
	Limit         int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.ZipCode = strings.TrimSpace(normalized.ZipCode)
	normalized.Size = Size(strings.ToUpper(strings.TrimSpace(string(normalized.Size))))
	if normalized.PriceMinCents < 0 {
		normalized.PriceMinCents = 0
	}
	if normalized.PriceMaxCents > 0 && normalized.PriceMaxCents < normalized.PriceMinCents {
		normalized.PriceMaxCents = 0
	}
	if normalized.Limit <= 0 || normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	return normalized
}

// Matches reports whether a listing passes the host, zip, size and price filters.
func (p SearchParams) Matches(l *Listing) bool {
	if p.Host != "" && l.Host != p.Host {
		return false
	}
	if p.ZipCode != "" && l.ZipCode != p.ZipCode {
		return false
	}
	if p.Size != "" && l.Size != p.Size {
		return false
	}
	if p.PriceMinCents > 0 && l.PricePerMonth.Amount < p.PriceMinCents {
		return false
	}
	if p.PriceMaxCents > 0 && l.PricePerMonth.Amount > p.PriceMaxCents {
		return false
	}
	return true
}

// SortForSearch orders by rating descending, newest first on ties.
func SortForSearch(items []*Listing) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Rating != items[j].Rating {
			return items[i].Rating > items[j].Rating
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// SearchResult wraps search hits with meta.
type SearchResult struct {
	Items []*Listing
	Total int
}
