package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/api"
	"github.com/persistorai/ldpath/internal/logging"
	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/queries"
	"github.com/persistorai/ldpath/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger { return logging.Discard() }

// fakeRunner answers every query named "ok" with two paths.
type fakeRunner struct {
	err error
}

func (f *fakeRunner) Execute(ctx context.Context, req *models.SearchRequest, onPath func(int, []models.PathStep)) (*models.RunResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	if req.Query != "ok" {
		return nil, fmt.Errorf("%w: %q", models.ErrQueryNotFound, req.Query)
	}

	if req.Weight != nil && *req.Weight <= 0 {
		return nil, fmt.Errorf("%w: %w", service.ErrInvalidRequest, models.ErrInvalidWeight)
	}

	paths := [][]models.PathStep{
		{{State: "s0", Node: "http://ex.org/a"}, {Transition: &models.StepTransition{P: "http://ex.org/p", D: ">"}, State: "F", Node: "http://ex.org/b"}},
		{{State: "s0", Node: "http://ex.org/a"}, {Transition: &models.StepTransition{P: "http://ex.org/p", D: ">"}, State: "F", Node: "http://ex.org/c"}},
	}

	for i, p := range paths {
		if ctx.Err() != nil {
			break
		}

		if onPath != nil {
			onPath(i, p)
		}
	}

	return &models.RunResult{
		ID:     "3b0f2a1e-0000-4000-8000-000000000001",
		Query:  "OK",
		Params: models.Params{Algorithm: "AStar", Weight: 1, QuickGoal: true},
		Data:   models.RunData{Paths: paths, PathCount: len(paths), Time: 0.01},
	}, nil
}

type fakeQueries struct{}

func (fakeQueries) Infos() []queries.Info {
	return []queries.Info{{ID: 0, Name: "OK", Start: "<http://ex.org/a>"}}
}

type fakeRuns struct {
	runs map[string]*models.RunResult
}

func (f *fakeRuns) ListRuns(_ context.Context, limit int) ([]models.RunSummary, error) {
	var out []models.RunSummary
	for id, r := range f.runs {
		out = append(out, models.RunSummary{ID: id, Query: r.Query, PathCount: r.Data.PathCount})
	}

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (f *fakeRuns) GetRun(_ context.Context, id string) (*models.RunResult, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
	}

	return r, nil
}

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

var errDown = errors.New("connection refused")

func newRouter(runner api.SearchRunner, runs api.RunReader, db api.Pinger) http.Handler {
	return api.NewRouter(context.Background(), &api.RouterDeps{
		Log:         testLogger(),
		Searches:    runner,
		Queries:     fakeQueries{},
		Runs:        runs,
		DB:          db,
		CORSOrigins: []string{"http://localhost:3000"},
		RateLimit:   1000,
		RateBurst:   1000,
		Version:     "test-v1",
	})
}

// doRequest performs an HTTP request against the handler and returns the recorder.
func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}
