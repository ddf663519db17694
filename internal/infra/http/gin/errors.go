package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"spacio/internal/app/dto"
	pricingapp "spacio/internal/app/handlers/pricing"
	"spacio/internal/app/services/auth"
	domainbooking "spacio/internal/domain/booking"
	domainlistings "spacio/internal/domain/listings"
	domainpricing "spacio/internal/domain/pricing"
	"spacio/internal/domain/shared/daterange"
	"spacio/internal/infra/validation"
)

// statusFor maps application errors onto HTTP statuses. Unknown errors are 500s.
func statusFor(err error) int {
	var rejection *domainbooking.Rejection
	switch {
	case errors.Is(err, domainbooking.ErrCapacityNoLongerAvailable),
		errors.Is(err, domainbooking.ErrConcurrentUpdate),
		errors.Is(err, domainlistings.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.As(err, &rejection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrHostRequired),
		errors.Is(err, domainbooking.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domainlistings.ErrNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, pricingapp.ErrSuggesterUnavailable):
		return http.StatusServiceUnavailable
	case isValidationError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, daterange.ErrInvalidDate),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrInvalidCapacity),
		errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrPriceRequired),
		errors.Is(err, domainlistings.ErrCapacityRequired),
		errors.Is(err, domainlistings.ErrInvalidSize),
		errors.Is(err, domainlistings.ErrInvalidWindow),
		errors.Is(err, domainpricing.ErrUnknownPolicy):
		return true
	}
	return false
}

// errorBody renders err with the details a client can act on.
func errorBody(status int, err error) gin.H {
	body := gin.H{"error": err.Error()}
	var rejection *domainbooking.Rejection
	var fields *validation.FieldsError
	switch {
	case status == http.StatusConflict && !errors.Is(err, domainbooking.ErrInvalidState):
		body["retryable"] = true
	case errors.As(err, &rejection):
		view := dto.MapRejection(rejection)
		body["code"] = view.Code
		body["error"] = view.Message
		if view.Available != nil {
			body["available"] = *view.Available
		}
	case errors.As(err, &fields):
		body["fields"] = fields.Fields
	case status == http.StatusInternalServerError:
		body["error"] = "internal error"
	}
	return body
}

func respondError(c *gin.Context, logger *slog.Logger, scope string, err error) {
	status := statusFor(err)
	if logger != nil {
		fields := []any{"status", status, "error", err, "path", c.FullPath()}
		if p, ok := currentPrincipal(c); ok {
			fields = append(fields, "user_id", p.UserID)
		}
		if status >= http.StatusInternalServerError {
			logger.Error(scope+" request failed", fields...)
		} else {
			logger.Debug(scope+" request rejected", fields...)
		}
	}
	c.JSON(status, errorBody(status, err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
