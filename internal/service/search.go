// Package service runs catalogue queries on behalf of the API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/automaton"
	"github.com/persistorai/ldpath/internal/config"
	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/rdf"
	"github.com/persistorai/ldpath/internal/search"
)

// ErrInvalidRequest marks errors caused by the caller's parameters.
var ErrInvalidRequest = errors.New("invalid search request")

// Catalogue resolves query ids and names.
type Catalogue interface {
	Lookup(key string) (*automaton.Definition, error)
}

// Defaults are the settings a request does not override.
type Defaults struct {
	Weight  float64
	Options search.Options
}

// DefaultsFromConfig maps the search section of cfg.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	opts := search.DefaultOptions()
	opts.Algorithm = search.ParseAlgorithm(cfg.Algorithm)
	opts.QuickGoal = cfg.QuickGoal
	opts.ParallelRequests = cfg.ParallelRequests
	opts.BatchSize = cfg.BatchSize
	opts.FetchTimeout = cfg.FetchTimeout
	opts.RetryEvery = cfg.RetryEvery
	opts.Limits = search.Limits{
		Answers: cfg.LimitAnswers,
		Triples: cfg.LimitTriples,
		Time:    cfg.LimitTime,
	}

	return Defaults{Weight: cfg.Weight, Options: opts}
}

// SearchService builds and runs searches from SearchRequests.
type SearchService struct {
	queries  Catalogue
	fetcher  fetch.Fetcher
	archive  *ArchiveWorker
	defaults Defaults
	log      *logrus.Logger
}

// NewSearchService creates a SearchService. A nil archive disables archiving.
func NewSearchService(queries Catalogue, fetcher fetch.Fetcher, archive *ArchiveWorker, defaults Defaults, log *logrus.Logger) *SearchService {
	if defaults.Weight <= 0 {
		defaults.Weight = 1
	}

	return &SearchService{
		queries:  queries,
		fetcher:  fetcher,
		archive:  archive,
		defaults: defaults,
		log:      log,
	}
}

// Prepare validates req and returns the search it describes together with
// the query definition.
func (s *SearchService) Prepare(req *models.SearchRequest) (*search.Search, *automaton.Definition, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	def, err := s.queries.Lookup(req.Query)
	if err != nil {
		return nil, nil, err
	}

	weight := s.defaults.Weight
	if req.Weight != nil {
		weight = *req.Weight
	}

	var a *automaton.Automaton
	if req.Start != "" {
		a, err = def.BuildFrom(rdf.IRI(req.Start), weight, automaton.WithLogger(s.log))
	} else {
		a, err = def.Build(weight, automaton.WithLogger(s.log))
	}

	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	opts := s.options(req)

	sr, err := search.New(a, s.fetcher, s.log, func(o *search.Options) { *o = opts })
	if err != nil {
		return nil, nil, err
	}

	return sr, def, nil
}

func (s *SearchService) options(req *models.SearchRequest) search.Options {
	opts := s.defaults.Options

	if req.Algorithm != "" {
		opts.Algorithm = search.ParseAlgorithm(req.Algorithm)
	}

	if req.ParallelRequests > 0 {
		opts.ParallelRequests = req.ParallelRequests
	}

	if req.BatchSize > 0 {
		opts.BatchSize = req.BatchSize
	}

	if req.QuickGoal != nil {
		opts.QuickGoal = *req.QuickGoal
	}

	if req.Limits != nil {
		ceiling := s.defaults.Options.Limits
		opts.Limits = search.Limits{
			Answers: capLimit(req.Limits.Ans, ceiling.Answers),
			Triples: capLimit(req.Limits.Triples, ceiling.Triples),
			Time:    capLimit(time.Duration(req.Limits.Time*float64(time.Second)), ceiling.Time),
		}
	}

	return opts
}

// capLimit bounds a requested limit by the configured one. Zero asks for the
// configured limit; only a configured zero lets a request run unbounded.
func capLimit[T int | time.Duration](requested, configured T) T {
	if configured > 0 && (requested <= 0 || requested > configured) {
		return configured
	}

	return requested
}

// Execute runs req until the search ends or ctx is cancelled and returns
// what it produced. onPath, when set, sees every path as it is found. With
// an archive configured the result gets an id and is queued for storage.
func (s *SearchService) Execute(ctx context.Context, req *models.SearchRequest, onPath func(idx int, steps []models.PathStep)) (*models.RunResult, error) {
	sr, def, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}

	a := sr.Automaton()
	n := 0

	data := sr.Run(ctx, func(p search.Path) {
		if onPath != nil {
			onPath(n, p.Steps(a))
		}
		n++
	})

	result := &models.RunResult{
		Query:     def.Name,
		Params:    sr.Params(),
		Data:      *data,
		CreatedAt: time.Now().UTC(),
	}

	if s.archive != nil {
		result.ID = uuid.NewString()

		job := *result
		s.archive.Enqueue(&ArchiveJob{Result: &job, Triples: sr.Graph().Triples()})
	}

	s.log.WithFields(logrus.Fields{
		"query":   result.Query,
		"paths":   result.Data.PathCount,
		"seconds": result.Data.Time,
		"run_id":  result.ID,
	}).Info("search completed")

	return result, nil
}
