package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/middleware"
	"github.com/persistorai/ldpath/internal/models"
)

// SearchHandler runs searches over HTTP.
type SearchHandler struct {
	runner SearchRunner
	log    *logrus.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(runner SearchRunner, log *logrus.Logger) *SearchHandler {
	return &SearchHandler{runner: runner, log: log}
}

// Create handles POST /api/v1/searches. The search runs to completion within
// the request and the whole result is returned.
func (h *SearchHandler) Create(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	result, err := h.runner.Execute(c.Request.Context(), &req, nil)
	if err != nil {
		h.fail(c, &req, err)

		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SearchHandler) fail(c *gin.Context, req *models.SearchRequest, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		middleware.RequestLogger(c, h.log).WithError(err).WithField("query", req.Query).Error("search failed")
		respondError(c, status, code, "internal server error")

		return
	}

	respondError(c, status, code, err.Error())
}
