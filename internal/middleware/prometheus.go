package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/ldpath/internal/metrics"
)

// PrometheusMiddleware records HTTP request duration and count. Scrapes of
// /metrics are not recorded, and websocket streams are only counted since
// their duration is the length of a search.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()

			return
		}

		ws := c.IsWebsocket()
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath() // route pattern keeps label cardinality bounded
		if path == "" {
			path = "unknown"
		}

		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		if !ws {
			metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		}
	}
}
