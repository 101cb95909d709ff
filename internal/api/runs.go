package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/middleware"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunHandler serves the run archive.
type RunHandler struct {
	runs RunReader
	log  *logrus.Logger
}

// NewRunHandler creates a RunHandler.
func NewRunHandler(runs RunReader, log *logrus.Logger) *RunHandler {
	return &RunHandler{runs: runs, log: log}
}

// List handles GET /api/v1/runs.
func (h *RunHandler) List(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), defaultRunLimit, maxRunLimit)

	runs, err := h.runs.ListRuns(c.Request.Context(), limit)
	if err != nil {
		middleware.RequestLogger(c, h.log).WithError(err).Error("listing runs")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}

// Get handles GET /api/v1/runs/:id.
func (h *RunHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if err := validateRunID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	run, err := h.runs.GetRun(c.Request.Context(), id)
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			middleware.RequestLogger(c, h.log).WithError(err).WithField("run_id", id).Error("loading run")
			respondError(c, status, code, "internal server error")

			return
		}

		respondError(c, status, code, "run not found")

		return
	}

	c.JSON(http.StatusOK, run)
}

// archiveDisabled answers the run routes when no database is configured.
func archiveDisabled(c *gin.Context) {
	respondError(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "run archive is not configured")
}
