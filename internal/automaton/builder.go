package automaton

import (
	"github.com/persistorai/ldpath/internal/rdf"
)

// Builder assembles an automaton hop by hop:
//
//	b := NewBuilder("names", alice, "s0")
//	b.From("s0").Through(foafName).Final("Name", nil)
//	a, err := b.Build(1)
//
// The first error is kept and returned by Build.
type Builder struct {
	a   *Automaton
	err error
}

// NewBuilder starts an automaton rooted at node with start state root.
func NewBuilder(name string, node rdf.Term, root string, opts ...Option) *Builder {
	return &Builder{a: New(name, node, root, nil, nil, opts...)}
}

// Root returns the name of the start state.
func (b *Builder) Root() string { return b.a.State(b.a.Start).Name }

// From begins a hop from an existing state.
func (b *Builder) From(name string) *Hop {
	return &Hop{b: b, origin: name}
}

// Build computes heuristics and returns the finished automaton.
func (b *Builder) Build(weight float64) (*Automaton, error) {
	if b.err != nil {
		return nil, b.err
	}

	if err := b.a.ComputeHeuristics(weight); err != nil {
		return nil, err
	}

	return b.a, nil
}

// Hop is a partially specified transition. Without Through, ThroughNot or
// Loop the hop accepts any predicate.
type Hop struct {
	b      *Builder
	origin string
	arc    ArcFilter
}

// Through restricts the hop to the given predicates.
func (h *Hop) Through(preds ...rdf.Term) *Hop {
	h.arc = Whitelist(preds...)
	return h
}

// ThroughNot accepts every predicate except the given ones.
func (h *Hop) ThroughNot(preds ...rdf.Term) *Hop {
	h.arc = Blacklist(preds...)
	return h
}

// Any lets every predicate through.
func (h *Hop) Any() *Hop {
	h.arc = Any()
	return h
}

// Arc uses an arbitrary arc filter.
func (h *Hop) Arc(f ArcFilter) *Hop {
	h.arc = f
	return h
}

// To adds a forward transition to dest.
func (h *Hop) To(dest string, filter, accept *NodeFilter) *Hop {
	return h.add(rdf.Forward, dest, filter, accept)
}

// BackwardsTo adds a backward transition to dest.
func (h *Hop) BackwardsTo(dest string, filter, accept *NodeFilter) *Hop {
	return h.add(rdf.Backward, dest, filter, accept)
}

// Final adds a forward transition to an accept-all state.
func (h *Hop) Final(dest string, filter *NodeFilter) *Hop {
	return h.add(rdf.Forward, dest, filter, acceptAll())
}

// BackwardsFinal adds a backward transition to an accept-all state.
func (h *Hop) BackwardsFinal(dest string, filter *NodeFilter) *Hop {
	return h.add(rdf.Backward, dest, filter, acceptAll())
}

// Loop adds forward and backward self transitions through preds, which is how
// owl:sameAs style closures are written.
func (h *Hop) Loop(preds ...rdf.Term) *Hop {
	h.arc = Whitelist(preds...)
	h.add(rdf.Forward, h.origin, nil, nil)
	h.add(rdf.Backward, h.origin, nil, nil)

	return h
}

func (h *Hop) add(dir rdf.Direction, dest string, filter, accept *NodeFilter) *Hop {
	if h.b.err != nil {
		return h
	}

	if _, err := h.b.a.AddTransition(h.origin, h.arc, dir, dest, filter, accept); err != nil {
		h.b.err = err
	}

	return h
}

func acceptAll() *NodeFilter {
	f := Any()
	return &f
}
