package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	listingapp "spacio/internal/app/handlers/listings"
	pricingapp "spacio/internal/app/handlers/pricing"
	"spacio/internal/app/queries"
	"spacio/internal/domain/shared/daterange"
)

// HostListingHandler serves the host's side of the catalog.
type HostListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createListingRequest struct {
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
}

type suggestPriceRequest struct {
	Size    string `json:"size"`
	ZipCode string `json:"zipCode"`
	Indoor  bool   `json:"indoor"`
}

func (h HostListingHandler) List(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries bus unavailable"})
		return
	}
	result, err := queries.Ask[listingapp.ListHostListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingapp.ListHostListingsQuery{HostID: host.UserID})
	if err != nil {
		respondError(c, h.Logger, "host listing", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostListingHandler) Create(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands bus unavailable"})
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	dates := make([]*time.Time, 3)
	for i, raw := range []string{req.AvailableFrom, req.AvailableTo, req.BookingDeadline} {
		parsed, err := daterange.ParseOptionalDate(strings.TrimSpace(raw))
		if err != nil {
			badRequest(c, err)
			return
		}
		dates[i] = parsed
	}
	cmd := listingapp.CreateListingCommand{
		HostID:          host.UserID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Size:            strings.TrimSpace(req.Size),
		PricePerMonth:   req.PricePerMonth,
		SizeSqft:        req.SizeSqft,
		AvailableFrom:   dates[0],
		AvailableTo:     dates[1],
		BookingDeadline: dates[2],
		AddressSummary:  strings.TrimSpace(req.AddressSummary),
		ZipCode:         strings.TrimSpace(req.ZipCode),
		Images:          req.Images,
		Rating:          req.Rating,
	}
	result, err := commands.Dispatch[listingapp.CreateListingCommand, *dto.ListingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "host listing", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// PriceSuggestion returns an advisory monthly price for a space the host is about to list.
func (h HostListingHandler) PriceSuggestion(c *gin.Context) {
	if _, ok := requireHost(c); !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries bus unavailable"})
		return
	}
	var req suggestPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	query := pricingapp.SuggestPriceQuery{
		Size:    strings.TrimSpace(req.Size),
		ZipCode: strings.TrimSpace(req.ZipCode),
		Indoor:  req.Indoor,
	}
	result, err := queries.Ask[pricingapp.SuggestPriceQuery, dto.PriceSuggestionView](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "price suggestion", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostListingHTTP = HostListingHandler{}
