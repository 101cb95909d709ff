package main

import (
	"context"
	"fmt"
	"time"

	"github.com/persistorai/ldpath/internal/cache"
	"github.com/persistorai/ldpath/internal/config"
	"github.com/persistorai/ldpath/internal/dbpool"
	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/linkeddata"
	"github.com/persistorai/ldpath/internal/queries"
	"github.com/persistorai/ldpath/internal/store"
)

// newFetcher builds the Linked Data client from cfg, wrapped in the on-disk
// cache when enabled. The returned func releases the cache.
func newFetcher(cfg *config.Config) (fetch.Fetcher, func(), error) {
	opts := []linkeddata.Option{
		linkeddata.WithUserAgent(cfg.UserAgent),
		linkeddata.WithAttempts(cfg.FetchAttempts),
		linkeddata.WithRetryWait(cfg.FetchRetryWait),
		linkeddata.WithRateLimit(cfg.HostRate, cfg.HostBurst),
		linkeddata.WithLogger(log),
	}

	if len(cfg.Endpoints) > 0 {
		eps := make([]linkeddata.Endpoint, 0, len(cfg.Endpoints))
		for _, e := range cfg.Endpoints {
			ep, err := linkeddata.NewEndpoint(e.Pattern, e.URL)
			if err != nil {
				return nil, nil, err
			}
			eps = append(eps, ep)
		}
		opts = append(opts, linkeddata.WithEndpoints(eps...))
	}

	if cfg.DelayTable != "" {
		d, err := linkeddata.LoadDelaySimulator(cfg.DelayTable, uint64(time.Now().UnixNano()))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, linkeddata.WithDelaySimulator(d))
	}

	var f fetch.Fetcher = linkeddata.New(opts...)

	if !cfg.CacheEnabled {
		return f, func() {}, nil
	}

	c, err := cache.Open(cache.Options{Dir: cfg.CacheDir, TTL: cfg.CacheTTL, Logger: log})
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}

	closeCache := func() {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("closing cache")
		}
	}

	return c.Wrap(f), closeCache, nil
}

// openStore connects to the archive database.
func openStore(ctx context.Context, cfg *config.Config) (*store.RunStore, *dbpool.Pool, error) {
	if !cfg.ArchiveEnabled() {
		return nil, nil, fmt.Errorf("the run archive needs LDPATH_DATABASE_URL")
	}

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return nil, nil, err
	}

	return store.NewRunStore(pool, log), pool, nil
}

func loadCatalogue(cfg *config.Config) (*queries.Catalogue, error) {
	return queries.Load(cfg.QueriesDir)
}
