package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/ldpath/internal/api"
	"github.com/persistorai/ldpath/internal/config"
	"github.com/persistorai/ldpath/internal/db"
	"github.com/persistorai/ldpath/internal/db/migrations"
	"github.com/persistorai/ldpath/internal/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}

	f := cmd.Flags()
	f.String("port", "3040", "Listen port (env: LDPATH_PORT)")
	f.String("host", "127.0.0.1", "Listen host (env: LDPATH_LISTEN_HOST)")
	f.Bool("cache", false, "Cache fetched documents on disk")
	f.String("queries-dir", "", "Directory with extra query definitions")
	f.BoolVar(&migrate, "migrate", true, "Apply archive migrations on start")

	return cmd
}

func serve(parent context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queries, err := loadCatalogue(cfg)
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	deps := &api.RouterDeps{
		Log:         log,
		Queries:     queries,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimitPerSec,
		RateBurst:   cfg.RateLimitBurst,
		Version:     config.Version,
	}

	var archive *service.ArchiveWorker

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	workerDone := make(chan struct{})
	close(workerDone)

	if cfg.ArchiveEnabled() {
		runs, pool, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if migrate {
			if _, err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
				return err
			}
		}

		archive = service.NewArchiveWorker(runs, log, 0)
		workerDone = make(chan struct{})

		go func() {
			defer close(workerDone)
			archive.Run(workerCtx)
		}()

		deps.Runs = runs
		deps.DB = runs
	}

	deps.Searches = service.NewSearchService(queries, fetcher, archive, service.DefaultsFromConfig(cfg), log)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(ctx, deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		stopWorker()
		<-workerDone
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	// Drain queued archive jobs once no handler can enqueue more.
	stopWorker()
	<-workerDone

	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	return nil
}
