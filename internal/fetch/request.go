// Package fetch runs bounded, time-limited batches of Linked Data fetches.
package fetch

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/persistorai/ldpath/internal/rdf"
)

// Need describes what a fetch should retrieve in one direction.
type Need struct {
	Needed bool
	// Constrained means only Predicates are relevant. When false every
	// predicate is.
	Constrained bool
	Predicates  rdf.TermSet
}

// merge widens n to also cover o.
func (n Need) merge(o Need) Need {
	switch {
	case !o.Needed:
		return n
	case !n.Needed:
		return o.clone()
	case !n.Constrained || !o.Constrained:
		return Need{Needed: true}
	}

	return Need{Needed: true, Constrained: true, Predicates: n.Predicates.Clone().Union(o.Predicates)}
}

func (n Need) clone() Need {
	if n.Predicates != nil {
		n.Predicates = n.Predicates.Clone()
	}

	return n
}

// Hints narrow a fetch to the predicates the automaton can use next.
type Hints struct {
	Forward  Need
	Backward Need
}

// NeedsBackward reports whether a reverse lookup is required.
func (h Hints) NeedsBackward() bool { return h.Backward.Needed }

// Signature is a stable text form of the hints, used as a cache key suffix.
func (h Hints) Signature() string {
	var b strings.Builder

	for i, n := range []Need{h.Forward, h.Backward} {
		if i > 0 {
			b.WriteByte('|')
		}

		switch {
		case !n.Needed:
			b.WriteByte('-')
		case !n.Constrained:
			b.WriteByte('*')
		default:
			preds := make([]string, 0, len(n.Predicates))
			for p := range n.Predicates {
				preds = append(preds, p.Value)
			}

			sort.Strings(preds)
			b.WriteString(strings.Join(preds, ","))
		}
	}

	return b.String()
}

// MergeHints unions several hints; an unconstrained need wins.
func MergeHints(hs ...Hints) Hints {
	var out Hints

	for _, h := range hs {
		out.Forward = out.Forward.merge(h.Forward)
		out.Backward = out.Backward.merge(h.Backward)
	}

	return out
}

// Request asks for the data about one node. Index lets the caller map a
// response back to its own bookkeeping.
type Request struct {
	Index int
	Node  rdf.Term
	Hints Hints
}

// Response carries the outcome of one request.
type Response struct {
	Request Request
	Triples []rdf.Triple
	Elapsed time.Duration
	Err     error
	Failed  bool
}

// Fetcher retrieves the triples for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]rdf.Triple, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req Request) ([]rdf.Triple, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) ([]rdf.Triple, error) {
	return f(ctx, req)
}
