package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"spacio/internal/app/commands"
	"spacio/internal/app/dto"
	bookingapp "spacio/internal/app/handlers/booking"
	"spacio/internal/app/queries"
)

const idempotencyHeader = "Idempotency-Key"

// BookingHandler exposes reservations: requests by renters and decisions by hosts.
type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	ListingID     string `json:"listingId"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	SqftRequested int    `json:"sqftRequested"`
	AddInsurance  bool   `json:"addInsurance"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		ListingID:     strings.TrimSpace(req.ListingID),
		RenterID:      user.UserID,
		StartDate:     strings.TrimSpace(req.StartDate),
		EndDate:       strings.TrimSpace(req.EndDate),
		SqftRequested: req.SqftRequested,
		AddInsurance:  req.AddInsurance,
		IdemKey:       strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, "reservation", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) List(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queries unavailable"})
		return
	}
	query := bookingapp.ListMyBookingsQuery{UserID: user.UserID, IsHost: user.IsHost}
	result, err := queries.Ask[bookingapp.ListMyBookingsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, "reservation", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Approve(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	cmd := bookingapp.ApproveBookingCommand{
		BookingID: strings.TrimSpace(c.Param("id")),
		HostID:    host.UserID,
	}
	h.decide(c, func() (*dto.ReservationView, error) {
		return commands.Dispatch[bookingapp.ApproveBookingCommand, *dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Decline(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	cmd := bookingapp.DeclineBookingCommand{
		BookingID: strings.TrimSpace(c.Param("id")),
		HostID:    host.UserID,
		Reason:    reason,
	}
	h.decide(c, func() (*dto.ReservationView, error) {
		return commands.Dispatch[bookingapp.DeclineBookingCommand, *dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requirePrincipal(c)
	if !ok {
		return
	}
	reason, ok := bindReason(c)
	if !ok {
		return
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID: strings.TrimSpace(c.Param("id")),
		RenterID:  user.UserID,
		Reason:    reason,
	}
	h.decide(c, func() (*dto.ReservationView, error) {
		return commands.Dispatch[bookingapp.CancelBookingCommand, *dto.ReservationView](c.Request.Context(), h.Commands, cmd)
	})
}

func (h BookingHandler) decide(c *gin.Context, dispatch func() (*dto.ReservationView, error)) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	result, err := dispatch()
	if err != nil {
		respondError(c, h.Logger, "reservation", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bindReason(c *gin.Context) (string, bool) {
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return "", false
		}
	}
	return strings.TrimSpace(req.Reason), true
}

var _ BookingHTTP = BookingHandler{}
