package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/rdf"
)

const (
	sqlInsertRun = `
        INSERT INTO ld_runs (id, query, params, path_count, time_seconds, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	sqlListRuns = `
        SELECT id::text, query, params, path_count, time_seconds, created_at
        FROM ld_runs
        ORDER BY created_at DESC
        LIMIT $1`

	sqlGetRun = `
        SELECT query, params, path_count, time_seconds, created_at
        FROM ld_runs
        WHERE id = $1`

	sqlGetPaths = `SELECT steps FROM ld_paths WHERE run_id = $1 ORDER BY idx`
	sqlGetStats = `SELECT snapshot FROM ld_stats WHERE run_id = $1 ORDER BY seq`
)

// MaxListLimit caps ListRuns.
const MaxListLimit = 500

var (
	pathColumns   = []string{"run_id", "idx", "steps"}
	statsColumns  = []string{"run_id", "seq", "snapshot"}
	tripleColumns = []string{"run_id", "s", "p", "o"}
)

// RunStore archives search runs.
type RunStore struct {
	pool DBPool
	log  *logrus.Logger
}

// NewRunStore returns a RunStore over pool.
func NewRunStore(pool DBPool, log *logrus.Logger) *RunStore {
	return &RunStore{pool: pool, log: log}
}

// Ping checks the database is reachable.
func (s *RunStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.pool.Ping(ctx)
}

// SaveRun writes result with its paths, stats history and the triples the run
// loaded in one transaction. A result without a valid ID gets a new one. It
// returns the run id and sets result.ID and result.CreatedAt.
func (s *RunStore) SaveRun(ctx context.Context, result *models.RunResult, triples []rdf.Triple) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	params, err := json.Marshal(result.Params)
	if err != nil {
		return "", fmt.Errorf("encoding params: %w", err)
	}

	id, err := uuid.Parse(result.ID)
	if err != nil {
		id = uuid.New()
	}

	created := time.Now().UTC()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	_, err = tx.Exec(ctx, sqlInsertRun,
		id, result.Query, params, result.Data.PathCount, result.Data.Time, created)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	paths := make([][]any, len(result.Data.Paths))
	for i, p := range result.Data.Paths {
		steps, err := json.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("encoding path %d: %w", i, err)
		}

		paths[i] = []any{id, i, steps}
	}

	if err := copyRows(ctx, tx, "ld_paths", pathColumns, paths); err != nil {
		return "", err
	}

	stats := make([][]any, len(result.Data.StatsHistory))
	for i, snap := range result.Data.StatsHistory {
		b, err := json.Marshal(snap)
		if err != nil {
			return "", fmt.Errorf("encoding snapshot %d: %w", i, err)
		}

		stats[i] = []any{id, i, b}
	}

	if err := copyRows(ctx, tx, "ld_stats", statsColumns, stats); err != nil {
		return "", err
	}

	rows := make([][]any, len(triples))
	for i, t := range triples {
		rows[i] = []any{id, t.S.String(), t.P.String(), t.O.String()}
	}

	if err := copyRows(ctx, tx, "ld_triples", tripleColumns, rows); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}

	result.ID = id.String()
	result.CreatedAt = created

	s.log.WithFields(logrus.Fields{
		"run_id":  result.ID,
		"query":   result.Query,
		"paths":   len(paths),
		"triples": len(rows),
	}).Info("run archived")

	return result.ID, nil
}

func (s *RunStore) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		s.log.WithError(err).Error("rolling back run transaction")
	}
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copying %s: %w", table, err)
	}

	if int(n) != len(rows) {
		return fmt.Errorf("copying %s: expected %d rows, got %d", table, len(rows), n)
	}

	return nil
}

// ListRuns returns the most recent runs first. A limit outside
// [1, MaxListLimit] is clamped.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit = max(1, min(limit, MaxListLimit))

	rows, err := s.pool.Query(ctx, sqlListRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunSummary

	for rows.Next() {
		var (
			r      models.RunSummary
			params []byte
		)

		if err := rows.Scan(&r.ID, &r.Query, &params, &r.PathCount, &r.TimeSeconds, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if err := json.Unmarshal(params, &r.Params); err != nil {
			return nil, fmt.Errorf("decoding params of run %s: %w", r.ID, err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return out, nil
}

// GetRun loads one run with its paths and stats history. Unknown or
// malformed ids return models.ErrRunNotFound.
func (s *RunStore) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	r := models.RunResult{ID: runID.String()}

	var params []byte

	err = s.pool.QueryRow(ctx, sqlGetRun, runID).
		Scan(&r.Query, &params, &r.Data.PathCount, &r.Data.Time, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("loading run: %w", err)
	}

	if err := json.Unmarshal(params, &r.Params); err != nil {
		return nil, fmt.Errorf("decoding params: %w", err)
	}

	r.Data.Paths, err = scanJSON[[]models.PathStep](ctx, s.pool, sqlGetPaths, runID)
	if err != nil {
		return nil, fmt.Errorf("loading paths: %w", err)
	}

	r.Data.StatsHistory, err = scanJSON[models.Snapshot](ctx, s.pool, sqlGetStats, runID)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	return &r, nil
}

// scanJSON runs a single-column jsonb query and decodes every row into T.
func scanJSON[T any](ctx context.Context, pool DBPool, sql string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}

		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, rows.Err()
}
