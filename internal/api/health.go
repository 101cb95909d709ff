// Package api provides the HTTP handlers of the ldpath server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/db"
)

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	db        Pinger
	log       *logrus.Logger
	version   string
	queries   int
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. db may be nil when the archive is
// disabled.
func NewHealthHandler(db Pinger, log *logrus.Logger, version string, queries int) *HealthHandler {
	return &HealthHandler{
		db:        db,
		log:       log,
		version:   version,
		queries:   queries,
		startTime: time.Now(),
	}
}

type healthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	Queries       int     `json:"queries"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Liveness handles GET /api/v1/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		Database:      "not_configured",
		SchemaVersion: db.SchemaVersion(),
		Queries:       h.queries,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	// Best-effort database ping (non-fatal for liveness).
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp.Database = "connected"
		if err := h.db.Ping(ctx); err != nil {
			h.log.WithError(err).Warn("health: database ping failed")
			resp.Database = "disconnected"
		}
	}

	c.JSON(http.StatusOK, resp)
}
