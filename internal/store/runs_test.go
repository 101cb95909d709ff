package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/rdf"
	"github.com/persistorai/ldpath/internal/store"
)

// sqlPattern turns a statement into a whitespace-insensitive regexp.
func sqlPattern(sql string) string {
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(strings.TrimSpace(sql)), `\s+`)
}

func newStore(t *testing.T) (*store.RunStore, pgxmock.PgxPoolIface, *test.Hook) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	return store.NewRunStore(mock, log), mock, hook
}

func sampleResult() *models.RunResult {
	return &models.RunResult{
		Query: "Direct_Coauthors",
		Params: models.Params{
			Limits:           models.Limits{Time: 60, Triples: 1000, Ans: 10},
			Algorithm:        "A*",
			ParallelRequests: 4,
			QuickGoal:        true,
			Weight:           1,
		},
		Data: models.RunData{
			Paths: [][]models.PathStep{
				{{State: "s0", Node: "<http://ex.org/a>"}},
				{
					{State: "s0", Node: "<http://ex.org/a>"},
					{Transition: &models.StepTransition{P: "<http://ex.org/p>", D: ">"}, State: "S", Node: "<http://ex.org/b>"},
				},
			},
			PathCount:    2,
			StatsHistory: []models.Snapshot{{BatchID: 1, Expansions: 1}},
			Time:         1.5,
		},
	}
}

func TestSaveRun(t *testing.T) {
	s, mock, hook := newStore(t)

	triples := []rdf.Triple{
		{S: rdf.IRI("http://ex.org/a"), P: rdf.IRI("http://ex.org/p"), O: rdf.IRI("http://ex.org/b")},
	}

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(`INSERT INTO ld_runs (id, query, params, path_count, time_seconds, created_at)`)).
		WithArgs(pgxmock.AnyArg(), "Direct_Coauthors", pgxmock.AnyArg(), 2, 1.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"ld_paths"}, []string{"run_id", "idx", "steps"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"ld_stats"}, []string{"run_id", "seq", "snapshot"}).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"ld_triples"}, []string{"run_id", "s", "p", "o"}).WillReturnResult(1)
	mock.ExpectCommit()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	r := sampleResult()

	id, err := s.SaveRun(context.Background(), r, triples)
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level, "no rollback error expected after commit")
	}
}

func TestSaveRunSkipsEmptyCopies(t *testing.T) {
	s, mock, _ := newStore(t)

	r := &models.RunResult{Query: "q", Params: models.Params{Algorithm: "A*", Weight: 1}}

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(`INSERT INTO ld_runs`)).
		WithArgs(pgxmock.AnyArg(), "q", pgxmock.AnyArg(), 0, 0.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	_, err := s.SaveRun(context.Background(), r, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnCopyFailure(t *testing.T) {
	s, mock, _ := newStore(t)

	copyErr := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(`INSERT INTO ld_runs`)).
		WithArgs(pgxmock.AnyArg(), "Direct_Coauthors", pgxmock.AnyArg(), 2, 1.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"ld_paths"}, []string{"run_id", "idx", "steps"}).WillReturnError(copyErr)
	mock.ExpectRollback()

	r := sampleResult()

	_, err := s.SaveRun(context.Background(), r, nil)
	require.ErrorIs(t, err, copyErr)
	assert.Empty(t, r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunCopyCountMismatch(t *testing.T) {
	s, mock, _ := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(`INSERT INTO ld_runs`)).
		WithArgs(pgxmock.AnyArg(), "Direct_Coauthors", pgxmock.AnyArg(), 2, 1.5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"ld_paths"}, []string{"run_id", "idx", "steps"}).WillReturnResult(1)
	mock.ExpectRollback()

	_, err := s.SaveRun(context.Background(), sampleResult(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 rows")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRuns(t *testing.T) {
	s, mock, _ := newStore(t)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	params, err := json.Marshal(models.Params{Algorithm: "Dijkstra", Weight: 1})
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"id", "query", "params", "path_count", "time_seconds", "created_at"}).
		AddRow("7f1c8a52-7c2e-4c1a-9d65-0f6d1f0f8e11", "Node_name", params, 3, 0.25, created)

	mock.ExpectQuery(sqlPattern(`SELECT id::text, query, params, path_count, time_seconds, created_at FROM ld_runs`)).
		WithArgs(store.MaxListLimit).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), 10_000)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, "Node_name", runs[0].Query)
	assert.Equal(t, "Dijkstra", runs[0].Params.Algorithm)
	assert.Equal(t, 3, runs[0].PathCount)
	assert.Equal(t, created, runs[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun(t *testing.T) {
	s, mock, _ := newStore(t)

	id := uuid.New()
	want := sampleResult()

	params, err := json.Marshal(want.Params)
	require.NoError(t, err)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(sqlPattern(`SELECT query, params, path_count, time_seconds, created_at FROM ld_runs`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"query", "params", "path_count", "time_seconds", "created_at"}).
			AddRow(want.Query, params, 2, 1.5, created))

	pathRows := pgxmock.NewRows([]string{"steps"})
	for _, p := range want.Data.Paths {
		b, err := json.Marshal(p)
		require.NoError(t, err)
		pathRows.AddRow(b)
	}

	mock.ExpectQuery(sqlPattern(`SELECT steps FROM ld_paths`)).WithArgs(id).WillReturnRows(pathRows)

	snap, err := json.Marshal(want.Data.StatsHistory[0])
	require.NoError(t, err)

	mock.ExpectQuery(sqlPattern(`SELECT snapshot FROM ld_stats`)).WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"snapshot"}).AddRow(snap))

	got, err := s.GetRun(context.Background(), id.String())
	require.NoError(t, err)

	assert.Equal(t, id.String(), got.ID)
	assert.Equal(t, want.Params, got.Params)
	assert.Equal(t, want.Data.Paths, got.Data.Paths)
	assert.Equal(t, want.Data.StatsHistory, got.Data.StatsHistory)
	assert.Equal(t, created, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRunNotFound(t *testing.T) {
	s, mock, _ := newStore(t)

	_, err := s.GetRun(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, models.ErrRunNotFound)

	id := uuid.New()
	mock.ExpectQuery(sqlPattern(`SELECT query, params`)).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err = s.GetRun(context.Background(), id.String())
	require.ErrorIs(t, err, models.ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunKeepsPresetID(t *testing.T) {
	s, mock, _ := newStore(t)

	preset := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(sqlPattern(`INSERT INTO ld_runs`)).
		WithArgs(preset, "q", pgxmock.AnyArg(), 0, 0.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback().WillReturnError(pgx.ErrTxClosed)

	id, err := s.SaveRun(context.Background(), &models.RunResult{ID: preset.String(), Query: "q"}, nil)
	require.NoError(t, err)
	assert.Equal(t, preset.String(), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
