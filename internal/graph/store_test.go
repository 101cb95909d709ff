package graph_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/ldpath/internal/graph"
	"github.com/persistorai/ldpath/internal/rdf"
)

var (
	alice   = rdf.IRI("http://ex.org/alice")
	bob     = rdf.IRI("http://ex.org/bob")
	paper   = rdf.IRI("http://ex.org/p1")
	creator = rdf.IRI("http://purl.org/dc/elements/1.1/creator")
	name    = rdf.IRI("http://xmlns.com/foaf/0.1/name")
)

func seeded() *graph.Store {
	s := graph.New()
	s.InsertAll([]rdf.Triple{
		{S: paper, P: creator, O: alice},
		{S: paper, P: creator, O: bob},
		{S: alice, P: name, O: rdf.Literal("Alice")},
	})

	return s
}

func TestInsertIdempotent(t *testing.T) {
	s := seeded()
	before := slices.Collect(s.Query(rdf.Term{}, rdf.Term{}, rdf.Term{}))

	assert.False(t, s.Insert(rdf.Triple{S: paper, P: creator, O: alice}))
	assert.Equal(t, 0, s.InsertAll([]rdf.Triple{{S: paper, P: creator, O: bob}}))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, before, slices.Collect(s.Query(rdf.Term{}, rdf.Term{}, rdf.Term{})))
}

func TestQueryPatterns(t *testing.T) {
	s := seeded()

	tests := []struct {
		name          string
		subj, pred, o rdf.Term
		want          int
	}{
		{"all", rdf.Term{}, rdf.Term{}, rdf.Term{}, 3},
		{"by subject", paper, rdf.Term{}, rdf.Term{}, 2},
		{"by object", rdf.Term{}, rdf.Term{}, alice, 1},
		{"by predicate", rdf.Term{}, name, rdf.Term{}, 1},
		{"subject and predicate", paper, creator, rdf.Term{}, 2},
		{"fully bound", paper, creator, bob, 1},
		{"fully bound miss", paper, name, bob, 0},
		{"unknown subject", bob, rdf.Term{}, rdf.Term{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(s.Query(tt.subj, tt.pred, tt.o))
			assert.Len(t, got, tt.want)
		})
	}
}

func TestQueryLiveAndBounded(t *testing.T) {
	s := seeded()

	seq := s.Query(paper, rdf.Term{}, rdf.Term{})

	n := 0
	for range seq {
		s.Insert(rdf.Triple{S: paper, P: name, O: rdf.Literal("P" + string(rune('a'+n)))})
		n++
	}

	assert.Equal(t, 2, n, "inserts during iteration are not visited")
	assert.Len(t, slices.Collect(seq), 4, "a new iteration sees the inserts")
}

func TestQueryEarlyStop(t *testing.T) {
	s := seeded()

	n := 0
	for range s.Query(rdf.Term{}, rdf.Term{}, rdf.Term{}) {
		n++
		break
	}

	assert.Equal(t, 1, n)
}

func TestLoadedAndFailed(t *testing.T) {
	s := graph.New()

	assert.False(t, s.IsLoaded(alice))
	s.MarkLoaded(alice)
	assert.True(t, s.IsLoaded(alice))

	s.MarkFailed(bob)
	s.MarkFailed(alice)
	assert.Equal(t, []rdf.Term{alice, bob}, s.Failed())
	assert.True(t, s.IsFailed(bob))
}

func TestRetryFailed(t *testing.T) {
	s := graph.New()
	s.MarkFailed(alice)
	s.MarkFailed(bob)
	s.MarkFailed(paper)

	load := func(_ context.Context, n rdf.Term) ([]rdf.Triple, error) {
		switch n {
		case alice:
			return []rdf.Triple{{S: alice, P: name, O: rdf.Literal("Alice")}}, nil
		case bob:
			return nil, nil
		default:
			return nil, errors.New("unreachable host")
		}
	}

	attempts := s.RetryFailed(context.Background(), load)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []rdf.Term{bob, paper}, s.Failed())
	assert.True(t, s.IsLoaded(alice))
	assert.Equal(t, 1, s.Len())
}

func TestRetryFailedCancelled(t *testing.T) {
	s := graph.New()
	s.MarkFailed(alice)
	s.MarkFailed(bob)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := s.RetryFailed(ctx, func(context.Context, rdf.Term) ([]rdf.Triple, error) {
		t.Fatal("load must not run after cancellation")
		return nil, nil
	})

	assert.Equal(t, 0, attempts)
	assert.Len(t, s.Failed(), 2)
}

func TestDump(t *testing.T) {
	s := seeded()

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf))

	var out []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "<http://ex.org/p1>", out[0]["s"])
	assert.Equal(t, `"Alice"`, out[2]["o"])
}
