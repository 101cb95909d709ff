package api

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/middleware"
)

// quietPaths are logged at debug level; probes and scrapes would drown the
// search requests otherwise.
var quietPaths = map[string]bool{
	"/metrics":       true,
	"/api/v1/health": true,
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := middleware.RequestLogger(c, log).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"route":    c.FullPath(),
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})

		if q := c.Query("query"); q != "" {
			entry = entry.WithField("query", q)
		}

		switch {
		case quietPaths[c.Request.URL.Path]:
			entry.Debug("request")
		case c.Writer.Status() >= 500:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// parseLimit reads a positive integer capped at max, returning fallback for
// anything unparsable.
func parseLimit(s string, fallback, max int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	return min(v, max)
}

// parseCount reads a non-negative integer, returning 0 for anything else.
func parseCount(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	return v
}

// parseFloat reads a finite non-negative float, returning 0 for anything else.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}

// maxRunIDLen bounds run ids taken from the path. Archive ids are UUIDs.
const maxRunIDLen = 64

func validateRunID(id string) error {
	if id == "" {
		return fmt.Errorf("run id must not be empty")
	}

	if len(id) > maxRunIDLen {
		return fmt.Errorf("run id exceeds maximum length of %d", maxRunIDLen)
	}

	return nil
}
