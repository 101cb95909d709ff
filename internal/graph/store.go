// Package graph holds the RDF triples discovered during a search together with
// the per-node load bookkeeping that decides what still has to be fetched.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/persistorai/ldpath/internal/rdf"
)

// LoadFunc fetches the triples describing node.
type LoadFunc func(ctx context.Context, node rdf.Term) ([]rdf.Triple, error)

// Store is an append-only triple set indexed by subject, predicate and object.
// It is owned by one goroutine; concurrent mutation is not supported.
type Store struct {
	triples []rdf.Triple
	set     map[rdf.Triple]struct{}
	bySubj  map[rdf.Term][]int
	byPred  map[rdf.Term][]int
	byObj   map[rdf.Term][]int

	loaded map[rdf.Term]struct{}
	failed map[rdf.Term]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		set:    make(map[rdf.Triple]struct{}),
		bySubj: make(map[rdf.Term][]int),
		byPred: make(map[rdf.Term][]int),
		byObj:  make(map[rdf.Term][]int),
		loaded: make(map[rdf.Term]struct{}),
		failed: make(map[rdf.Term]struct{}),
	}
}

// Insert adds t and reports whether it was new.
func (s *Store) Insert(t rdf.Triple) bool {
	if _, dup := s.set[t]; dup {
		return false
	}

	i := len(s.triples)
	s.triples = append(s.triples, t)
	s.set[t] = struct{}{}
	s.bySubj[t.S] = append(s.bySubj[t.S], i)
	s.byPred[t.P] = append(s.byPred[t.P], i)
	s.byObj[t.O] = append(s.byObj[t.O], i)

	return true
}

// InsertAll inserts ts and returns how many were new.
func (s *Store) InsertAll(ts []rdf.Triple) int {
	n := 0

	for _, t := range ts {
		if s.Insert(t) {
			n++
		}
	}

	return n
}

// Has reports whether t is stored.
func (s *Store) Has(t rdf.Triple) bool {
	_, ok := s.set[t]
	return ok
}

// Len returns the number of distinct triples.
func (s *Store) Len() int { return len(s.triples) }

// Query yields every triple matching the pattern; a zero Term matches anything.
// Triples inserted while iterating are not visited by that iteration.
func (s *Store) Query(subj, pred, obj rdf.Term) iter.Seq[rdf.Triple] {
	return func(yield func(rdf.Triple) bool) {
		idx, scan := s.pick(subj, pred, obj)

		if scan {
			n := len(s.triples)
			for i := 0; i < n; i++ {
				if match(s.triples[i], subj, pred, obj) && !yield(s.triples[i]) {
					return
				}
			}

			return
		}

		for _, i := range idx {
			if match(s.triples[i], subj, pred, obj) && !yield(s.triples[i]) {
				return
			}
		}
	}
}

// pick returns the shortest bound index, or scan=true when nothing is bound.
// Index slices are captured by value so later appends are invisible.
func (s *Store) pick(subj, pred, obj rdf.Term) (idx []int, scan bool) {
	found := false

	consider := func(term rdf.Term, index map[rdf.Term][]int) {
		if term.IsZero() {
			return
		}

		cand := index[term]
		if !found || len(cand) < len(idx) {
			idx, found = cand, true
		}
	}

	consider(subj, s.bySubj)
	consider(obj, s.byObj)
	consider(pred, s.byPred)

	return idx, !found
}

func match(t rdf.Triple, subj, pred, obj rdf.Term) bool {
	return (subj.IsZero() || t.S == subj) &&
		(pred.IsZero() || t.P == pred) &&
		(obj.IsZero() || t.O == obj)
}

// MarkLoaded records that node needs no further fetch.
func (s *Store) MarkLoaded(node rdf.Term) { s.loaded[node] = struct{}{} }

// IsLoaded reports whether node was fetched, successfully or not.
func (s *Store) IsLoaded(node rdf.Term) bool {
	_, ok := s.loaded[node]
	return ok
}

// MarkFailed queues node for the next retry sweep.
func (s *Store) MarkFailed(node rdf.Term) { s.failed[node] = struct{}{} }

// IsFailed reports whether node is waiting for a retry.
func (s *Store) IsFailed(node rdf.Term) bool {
	_, ok := s.failed[node]
	return ok
}

// Failed returns the nodes waiting for a retry, in a stable order.
func (s *Store) Failed() []rdf.Term {
	set := make(rdf.TermSet, len(s.failed))
	for n := range s.failed {
		set.Add(n)
	}

	return set.Sorted()
}

// RetryFailed clears the failed set and loads each node again with fn.
// Nodes that fail again, or come back empty, are re-queued. It returns the
// number of attempts made; a cancelled ctx stops the sweep and re-queues
// whatever was not attempted.
func (s *Store) RetryFailed(ctx context.Context, fn LoadFunc) int {
	pending := s.Failed()
	s.failed = make(map[rdf.Term]struct{})

	attempts := 0

	for i, node := range pending {
		if ctx.Err() != nil {
			for _, n := range pending[i:] {
				s.MarkFailed(n)
			}

			break
		}

		attempts++

		ts, err := fn(ctx, node)
		if err != nil || len(ts) == 0 {
			s.MarkFailed(node)
			continue
		}

		s.InsertAll(ts)
		s.MarkLoaded(node)
	}

	return attempts
}

type jsonTriple struct {
	S string `json:"s"`
	P string `json:"p"`
	O string `json:"o"`
}

// Dump writes every triple as a JSON array of {"s","p","o"} objects, terms in
// N-Triples notation.
func (s *Store) Dump(w io.Writer) error {
	out := make([]jsonTriple, 0, len(s.triples))
	for _, t := range s.triples {
		out = append(out, jsonTriple{S: t.S.String(), P: t.P.String(), O: t.O.String()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding triples: %w", err)
	}

	return nil
}

// Triples returns a copy of every stored triple in insertion order.
func (s *Store) Triples() []rdf.Triple {
	out := make([]rdf.Triple, len(s.triples))
	copy(out, s.triples)

	return out
}
