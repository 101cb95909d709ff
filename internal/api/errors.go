package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/ldpath/internal/httputil"
	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/service"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
	ErrCodeUnavailable     = "unavailable"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// classify maps service and store errors to a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrQueryNotFound), errors.Is(err, models.ErrRunNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, ErrCodeValidationError
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}
