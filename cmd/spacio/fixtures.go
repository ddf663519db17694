package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
	"spacio/internal/domain/shared/money"
	"spacio/internal/infra/config"
)

type listingFixture struct {
	ID              string   `json:"id"`
	HostID          string   `json:"hostId"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Size            string   `json:"size"`
	PricePerMonth   float64  `json:"pricePerMonth"`
	SizeSqft        int      `json:"sizeSqft"`
	AvailableFrom   string   `json:"availableFrom"`
	AvailableTo     string   `json:"availableTo"`
	BookingDeadline string   `json:"bookingDeadline"`
	AddressSummary  string   `json:"addressSummary"`
	ZipCode         string   `json:"zipCode"`
	Images          []string `json:"images"`
	Rating          float64  `json:"rating"`
	PolicyVersion   string   `json:"policyVersion"`
}

// loadListingFixtures seeds listings that do not exist yet. Invalid entries are
// logged and skipped.
func loadListingFixtures(ctx context.Context, repo domainlistings.ListingRepository, policies *domainpricing.PolicyBook, cfg config.Config, logger *slog.Logger) error {
	path := cfg.ListingsFixtures
	if path == "" {
		path = defaultListingFixturesPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now().UTC()
	imported := 0
	for _, fx := range fixtures {
		if _, err := repo.ByID(ctx, domainlistings.ListingID(fx.ID)); err == nil {
			continue
		} else if !errors.Is(err, domainlistings.ErrNotFound) {
			return err
		}
		listing, err := fx.toListing(policies, cfg.Currency, now)
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("listing fixtures imported", "count", imported, "path", path)
	return nil
}

func (fx listingFixture) toListing(policies *domainpricing.PolicyBook, currency string, now time.Time) (*domainlistings.Listing, error) {
	size, err := domainlistings.ParseSize(fx.Size)
	if err != nil {
		return nil, err
	}
	price, err := money.FromFloat(fx.PricePerMonth, currency)
	if err != nil {
		return nil, err
	}
	policy, err := policies.Resolve(fx.PolicyVersion)
	if err != nil {
		return nil, err
	}
	dates := make([]*time.Time, 3)
	for i, raw := range []string{fx.AvailableFrom, fx.AvailableTo, fx.BookingDeadline} {
		if dates[i], err = daterange.ParseOptionalDate(raw); err != nil {
			return nil, err
		}
	}
	return domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:              domainlistings.ListingID(strings.TrimSpace(fx.ID)),
		Host:            domainlistings.HostID(strings.TrimSpace(fx.HostID)),
		Title:           fx.Title,
		Description:     fx.Description,
		Size:            size,
		PricePerMonth:   price,
		TotalCapacity:   fx.SizeSqft,
		AvailableFrom:   dates[0],
		AvailableTo:     dates[1],
		BookingDeadline: dates[2],
		AddressSummary:  fx.AddressSummary,
		ZipCode:         fx.ZipCode,
		Images:          fx.Images,
		Rating:          fx.Rating,
		PolicyVersion:   policy.Version,
		Now:             now,
	})
}

func defaultListingFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("backend", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
