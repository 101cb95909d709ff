// Package cache keeps fetched resource descriptions in BadgerDB so repeated
// runs against the same resources skip the network.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/rdf"
)

// ErrMiss is returned by Get for absent or expired keys.
var ErrMiss = errors.New("cache miss")

// Options configures the cache.
type Options struct {
	// Dir is the badger data directory. Required unless InMemory is set.
	Dir string
	// InMemory keeps everything in RAM; used by tests.
	InMemory bool
	// TTL bounds how long an entry is served. Zero keeps entries forever.
	TTL time.Duration
	// Logger receives badger's warnings and errors.
	Logger *logrus.Logger
}

// Cache maps keys to triple lists.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
	log *logrus.Logger
}

// Open opens or creates the cache.
func Open(opts Options) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: Options.Dir is required for on-disk mode")
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{log})
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{log})
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return &Cache{db: db, ttl: opts.TTL, log: log}, nil
}

type wireTriple struct {
	S wireTerm `msgpack:"s"`
	P wireTerm `msgpack:"p"`
	O wireTerm `msgpack:"o"`
}

type wireTerm struct {
	K uint8  `msgpack:"k"`
	V string `msgpack:"v"`
	D string `msgpack:"d,omitempty"`
	L string `msgpack:"l,omitempty"`
}

func toWire(t rdf.Term) wireTerm {
	return wireTerm{K: uint8(t.Kind), V: t.Value, D: t.Datatype, L: t.Lang}
}

func (w wireTerm) term() rdf.Term {
	return rdf.Term{Kind: rdf.Kind(w.K), Value: w.V, Datatype: w.D, Lang: w.L}
}

// Get returns the triples stored under key.
func (c *Cache) Get(key string) ([]rdf.Triple, error) {
	var raw []byte

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", key, err)
	}

	var wire []wireTriple
	if err := msgpack.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", key, err)
	}

	out := make([]rdf.Triple, len(wire))
	for i, w := range wire {
		out[i] = rdf.Triple{S: w.S.term(), P: w.P.term(), O: w.O.term()}
	}

	return out, nil
}

// Put stores triples under key.
func (c *Cache) Put(key string, triples []rdf.Triple) error {
	wire := make([]wireTriple, len(triples))
	for i, t := range triples {
		wire[i] = wireTriple{S: toWire(t.S), P: toWire(t.P), O: toWire(t.O)}
	}

	raw, err := msgpack.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), raw)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}

		return txn.SetEntry(e)
	})
}

// Close flushes and closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key is the cache key for a request: the IRI plus the hint signature, since
// a SPARQL lookup narrowed by hints returns a subset of the full description.
func Key(req fetch.Request) string {
	return req.Node.Value + "\x00" + req.Hints.Signature()
}

// Wrap serves requests from the cache and stores non-empty results of next.
func (c *Cache) Wrap(next fetch.Fetcher) fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, req fetch.Request) ([]rdf.Triple, error) {
		key := Key(req)

		triples, err := c.Get(key)
		if err == nil {
			metrics.FetchTotal.WithLabelValues(metrics.OutcomeCached).Inc()
			return triples, nil
		}

		if !errors.Is(err, ErrMiss) {
			c.log.WithError(err).WithField("iri", req.Node.Value).Warn("cache read failed")
		}

		triples, err = next.Fetch(ctx, req)
		if err != nil || len(triples) == 0 {
			return triples, err
		}

		if err := c.Put(key, triples); err != nil {
			c.log.WithError(err).WithField("iri", req.Node.Value).Warn("cache write failed")
		}

		return triples, nil
	})
}

// badgerLogger routes badger output through logrus, dropping info and debug.
type badgerLogger struct{ log *logrus.Logger }

func (l badgerLogger) Errorf(f string, v ...any)   { l.log.Errorf("badger: "+f, v...) }
func (l badgerLogger) Warningf(f string, v ...any) { l.log.Warnf("badger: "+f, v...) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}
