package client

import (
	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/queries"
)

// Wire types shared with the server.
type (
	SearchRequest  = models.SearchRequest
	Limits         = models.Limits
	Params         = models.Params
	PathStep       = models.PathStep
	StepTransition = models.StepTransition
	Snapshot       = models.Snapshot
	RunData        = models.RunData
	RunResult      = models.RunResult
	RunSummary     = models.RunSummary
	Query          = queries.Info
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	Queries       int     `json:"queries"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
