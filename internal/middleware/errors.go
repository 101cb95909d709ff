package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/persistorai/ldpath/internal/httputil"
	"github.com/persistorai/ldpath/internal/metrics"
)

// respondError writes the shared error body and counts the error by code.
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}
