package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"spacio/internal/app/dto"
	listingapp "spacio/internal/app/handlers/listings"
	quoteapp "spacio/internal/app/handlers/quotes"
	"spacio/internal/app/queries"
)

// ListingHandler wires public listing queries and the quote preview to HTTP.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type quoteRequest struct {
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	SqftRequested int    `json:"sqftRequested"`
	AddInsurance  bool   `json:"addInsurance"`
}

// Search responds with listings filtered by zip, price band and size.
func (h ListingHandler) Search(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	priceMin, err := parseFloatParam(c, "priceMin")
	if err != nil {
		badRequest(c, err)
		return
	}
	priceMax, err := parseFloatParam(c, "priceMax")
	if err != nil {
		badRequest(c, err)
		return
	}
	query := listingapp.SearchListingsQuery{
		ZipCode:  strings.TrimSpace(c.Query("zipCode")),
		PriceMin: priceMin,
		PriceMax: priceMax,
		Size:     strings.TrimSpace(c.Query("size")),
		Limit:    parseInt(c.Query("limit")),
	}
	result, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "listing", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	listingID := strings.TrimSpace(c.Param("id"))
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing id is required"})
		return
	}
	result, err := queries.Ask[listingapp.GetListingQuery, dto.ListingView](c.Request.Context(), h.Queries, listingapp.GetListingQuery{ListingID: listingID})
	if err != nil {
		respondError(c, h.Logger, "listing", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Quote prices a prospective reservation without holding anything.
func (h ListingHandler) Quote(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing handler unavailable"})
		return
	}
	var req quoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	query := quoteapp.GetQuoteQuery{
		ListingID:     strings.TrimSpace(c.Param("id")),
		StartDate:     strings.TrimSpace(req.StartDate),
		EndDate:       strings.TrimSpace(req.EndDate),
		SqftRequested: req.SqftRequested,
		AddInsurance:  req.AddInsurance,
	}
	result, err := queries.Ask[quoteapp.GetQuoteQuery, dto.QuoteResponse](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "quote", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parseFloatParam(c *gin.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", name)
	}
	return v, nil
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

var _ ListingHTTP = ListingHandler{}
