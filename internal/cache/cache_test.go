package cache_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persistorai/ldpath/internal/cache"
	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/rdf"
)

func openMem(t *testing.T) *cache.Cache {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	c, err := cache.Open(cache.Options{InMemory: true, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

var sample = []rdf.Triple{
	{S: rdf.IRI("http://ex.org/a"), P: rdf.IRI("http://xmlns.com/foaf/0.1/name"), O: rdf.LangLiteral("Alice", "en")},
	{S: rdf.Blank("b0"), P: rdf.IRI("http://ex.org/p"), O: rdf.TypedLiteral("3", "http://www.w3.org/2001/XMLSchema#integer")},
}

func TestPutGet(t *testing.T) {
	c := openMem(t)

	_, err := c.Get("missing")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Put("k", sample))

	got, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := cache.Open(cache.Options{})
	assert.Error(t, err)
}

func TestWrap(t *testing.T) {
	c := openMem(t)

	var calls atomic.Int32

	next := fetch.FetcherFunc(func(_ context.Context, req fetch.Request) ([]rdf.Triple, error) {
		calls.Add(1)

		switch req.Node.Value {
		case "http://ex.org/a":
			return sample, nil
		case "http://ex.org/empty":
			return nil, nil
		default:
			return nil, errors.New("down")
		}
	})

	f := c.Wrap(next)
	ctx := context.Background()
	a := fetch.Request{Node: rdf.IRI("http://ex.org/a")}

	for range 2 {
		got, err := f.Fetch(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, sample, got)
	}

	assert.Equal(t, int32(1), calls.Load(), "second fetch is served from cache")

	narrowed := a
	narrowed.Hints = fetch.Hints{Backward: fetch.Need{Needed: true}}
	_, err := f.Fetch(ctx, narrowed)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "different hints use a different key")

	empty := fetch.Request{Node: rdf.IRI("http://ex.org/empty")}
	for range 2 {
		_, _ = f.Fetch(ctx, empty)
	}

	assert.Equal(t, int32(4), calls.Load(), "empty results are not cached")

	_, err = f.Fetch(ctx, fetch.Request{Node: rdf.IRI("http://ex.org/down")})
	assert.Error(t, err)
}
