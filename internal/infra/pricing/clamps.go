package pricing

import (
	"encoding/json"
	"log/slog"
	"strings"

	domainlistings "spacio/internal/domain/listings"
)

// ClampRange bounds a monthly suggestion in major currency units. Zero disables a side.
type ClampRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ClampConfig keeps remote suggestions within sane limits per size bucket.
type ClampConfig map[domainlistings.Size]ClampRange

func DefaultClampConfig() ClampConfig {
	return ClampConfig{
		domainlistings.SizeSmall:  {Min: 20, Max: 250},
		domainlistings.SizeMedium: {Min: 40, Max: 400},
		domainlistings.SizeLarge:  {Min: 60, Max: 650},
	}
}

// LoadClampConfig parses {"S":{"min":..,"max":..},...}. Invalid input falls back to defaults.
func LoadClampConfig(raw string, logger *slog.Logger) ClampConfig {
	if strings.TrimSpace(raw) == "" {
		return DefaultClampConfig()
	}
	var parsed map[string]ClampRange
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if logger != nil {
			logger.Warn("invalid PRICING_SUGGEST_CLAMPS JSON, using defaults", "error", err)
		}
		return DefaultClampConfig()
	}
	cfg := DefaultClampConfig()
	for key, rng := range parsed {
		size, err := domainlistings.ParseSize(key)
		if err != nil {
			continue
		}
		cfg[size] = rng
	}
	return cfg
}

func applyClamps(amount float64, cfg ClampConfig, size domainlistings.Size) (final float64, clamped bool) {
	final = amount
	rng, ok := cfg[size]
	if !ok {
		return final, false
	}
	if rng.Min > 0 && final < rng.Min {
		final = rng.Min
		clamped = true
	}
	if rng.Max > 0 && final > rng.Max {
		final = rng.Max
		clamped = true
	}
	return final, clamped
}
