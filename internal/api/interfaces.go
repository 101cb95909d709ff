package api

import (
	"context"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/queries"
)

// SearchRunner executes search requests. *service.SearchService implements it.
type SearchRunner interface {
	Execute(ctx context.Context, req *models.SearchRequest, onPath func(idx int, steps []models.PathStep)) (*models.RunResult, error)
}

// QueryLister lists the query catalogue.
type QueryLister interface {
	Infos() []queries.Info
}

// RunReader reads the run archive.
type RunReader interface {
	ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
	GetRun(ctx context.Context, id string) (*models.RunResult, error)
}

// Pinger checks a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
