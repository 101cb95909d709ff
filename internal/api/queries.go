package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// QueryHandler lists the query catalogue.
type QueryHandler struct {
	queries QueryLister
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(queries QueryLister) *QueryHandler {
	return &QueryHandler{queries: queries}
}

// List handles GET /api/v1/queries.
func (h *QueryHandler) List(c *gin.Context) {
	infos := h.queries.Infos()

	c.JSON(http.StatusOK, gin.H{"queries": infos, "total": len(infos)})
}
