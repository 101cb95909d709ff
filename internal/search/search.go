// Package search evaluates a property-path automaton over Linked Data. It keeps
// a best-first frontier of (node, state) pairs, expands pairs whose node is
// already loaded locally and loads the rest in parallel batches through a
// fetch.Fetcher.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/automaton"
	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/graph"
	"github.com/persistorai/ldpath/internal/rdf"
)

// ErrFetchFailure is logged when a node could not be loaded.
var ErrFetchFailure = errors.New("fetch failure")

// ErrLimitReached stops a retry sweep once a time or triple limit trips.
var ErrLimitReached = errors.New("search limit reached")

// ErrNoFetcher is returned by the fetcher of a Search created without one.
var ErrNoFetcher = errors.New("no fetcher configured")

// Search owns the graph, the frontier and the NodeState table of one query.
// A Search is not safe for concurrent use: run one Paths call at a time and
// only inspect Graph and Stats once it has finished.
type Search struct {
	a       *automaton.Automaton
	fetcher fetch.Fetcher
	log     *logrus.Logger
	opts    Options

	graph *graph.Store
	stats *Stats

	// h is the priority heuristic per state.
	h          []float64
	open       frontier
	table      map[nsKey]*NodeState
	recovering map[rdf.Term][]*NodeState

	onPush func(*NodeState)
}

// New returns a search over a built automaton. A nil fetcher makes every
// non-local node fail, which suits pre-loaded graphs.
func New(a *automaton.Automaton, f fetch.Fetcher, log *logrus.Logger, opts ...Option) (*Search, error) {
	if a == nil || !a.Built() {
		return nil, fmt.Errorf("search: %w", automaton.ErrNotBuilt)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	if f == nil {
		f = fetch.FetcherFunc(func(_ context.Context, req fetch.Request) ([]rdf.Triple, error) {
			return nil, fmt.Errorf("%w: %s", ErrNoFetcher, req.Node)
		})
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Search{a: a, fetcher: f, log: log, opts: o.normalized(), graph: graph.New()}
	s.setup()

	return s, nil
}

// Automaton returns the automaton being evaluated.
func (s *Search) Automaton() *automaton.Automaton { return s.a }

// Graph returns the triples loaded so far.
func (s *Search) Graph() *graph.Store { return s.graph }

// Stats returns the counters of the last run.
func (s *Search) Stats() *Stats { return s.stats }

// Options returns the effective options.
func (s *Search) Options() Options { return s.opts }

// Reset forgets the graph as well as the search state.
func (s *Search) Reset() {
	s.graph = graph.New()
	s.setup()
}

// setup clears the frontier and the NodeState table but keeps the graph, so a
// second run reuses what was already loaded.
func (s *Search) setup() {
	s.open = frontier{}
	s.table = make(map[nsKey]*NodeState)
	s.recovering = make(map[rdf.Term][]*NodeState)
	s.stats = newStats(s.opts.Clock, s.graph.Len, s.opts.MemorySampling)

	states := s.a.States()
	s.h = make([]float64, len(states))

	for i := range states {
		id := automaton.StateID(i)
		if s.opts.QuickGoal {
			s.h[i] = s.a.SuccessorH(id)
		} else {
			s.h[i] = states[i].H
		}
	}
}

// get returns the unique NodeState for (node, state), creating it on first use.
func (s *Search) get(node rdf.Term, state automaton.StateID) *NodeState {
	k := nsKey{node: node, state: state}
	if ns, ok := s.table[k]; ok {
		return ns
	}

	ns := newNodeState(node, state)
	s.table[k] = ns

	return ns
}

// enqueue pushes ns unless no accepting state is reachable from its state.
func (s *Search) enqueue(ns *NodeState) {
	h := s.h[ns.State]
	if math.IsInf(h, 1) {
		return
	}

	primary, secondary := s.opts.Algorithm.key(ns.G, h)
	s.open.push(primary, secondary, ns)

	if s.onPush != nil {
		s.onPush(ns)
	}
}

// reach relaxes the edge from -> node through transition tid. It returns the
// reached NodeState when it is a goal to report right away.
func (s *Search) reach(from *NodeState, pred, node rdf.Term, tid automaton.TransitionID) *NodeState {
	tr := s.a.Transition(tid)
	if !tr.Arc.Match(pred) {
		return nil
	}

	st := s.a.State(tr.Dst)
	if !st.Allows(node) {
		return nil
	}

	ns := s.get(node, tr.Dst)
	if ns.closed {
		return nil
	}

	cost := from.G + 1
	if cost >= ns.G {
		return nil
	}

	ns.G, ns.Parent, ns.Via, ns.Dir = cost, from, pred, tr.Direction
	s.enqueue(ns)

	if s.opts.QuickGoal && !ns.reported && st.Accepts(node) {
		ns.reported = true
		return ns
	}

	return nil
}

// expand follows every transition out of ns over the local graph, forward
// transitions first. It returns the goals to report, in order.
func (s *Search) expand(ns *NodeState) []*NodeState {
	var goals []*NodeState

	st := s.a.State(ns.State)

	if len(st.NextForward) > 0 {
		for t := range s.graph.Query(ns.Node, rdf.Term{}, rdf.Term{}) {
			for _, tid := range st.NextForward {
				if g := s.reach(ns, t.P, t.O, tid); g != nil {
					goals = append(goals, g)
				}
			}
		}
	}

	if len(st.NextBackward) > 0 {
		for t := range s.graph.Query(rdf.Term{}, rdf.Term{}, ns.Node) {
			for _, tid := range st.NextBackward {
				if g := s.reach(ns, t.P, t.S, tid); g != nil {
					goals = append(goals, g)
				}
			}
		}
	}

	return goals
}

// tier is one batch taken off the frontier.
type tier struct {
	// Local NodeStates can be expanded from the graph as it is.
	Local []*NodeState
	// Remote NodeStates need their node fetched first.
	Remote []*NodeState
	// Goals are the extracted NodeStates whose state accepts their node.
	// They are reported on extraction when quick goal is off.
	Goals []*NodeState
}

func (t tier) size() int { return len(t.Local) + len(t.Remote) }

// extractTopTier pops every open NodeState sharing the best primary key, at
// most limit of them when limit is positive, and closes them.
func (s *Search) extractTopTier(limit int) tier {
	var t tier

	if s.open.empty() {
		return t
	}

	top := s.open.peek().primary

	for limit <= 0 || t.size() < limit {
		if s.open.empty() || s.open.peek().primary > top {
			break
		}

		ns := s.open.pop().ns
		ns.closed = true

		if s.a.State(ns.State).Accepts(ns.Node) {
			t.Goals = append(t.Goals, ns)
		}

		if !ns.Node.IsIRI() || s.graph.IsLoaded(ns.Node) {
			t.Local = append(t.Local, ns)
		} else {
			t.Remote = append(t.Remote, ns)
		}
	}

	return t
}

// hints tells the fetcher which triples around ns can still matter.
func (s *Search) hints(ns *NodeState) fetch.Hints {
	var h fetch.Hints

	for _, d := range []rdf.Direction{rdf.Forward, rdf.Backward} {
		if len(s.a.State(ns.State).Next(d)) == 0 {
			continue
		}

		preds, ok := s.a.PredicatesOf(ns.State, d)
		need := fetch.Need{Needed: true, Constrained: ok, Predicates: preds}

		if d == rdf.Forward {
			h.Forward = need
		} else {
			h.Backward = need
		}
	}

	return h
}

// requests groups remote NodeStates per node, one request per IRI.
func (s *Search) requests(remote []*NodeState) ([]fetch.Request, [][]*NodeState) {
	index := make(map[rdf.Term]int)

	var (
		reqs    []fetch.Request
		members [][]*NodeState
	)

	for _, ns := range remote {
		i, ok := index[ns.Node]
		if !ok {
			i = len(reqs)
			index[ns.Node] = i
			reqs = append(reqs, fetch.Request{Index: i, Node: ns.Node})
			members = append(members, nil)
		}

		members[i] = append(members[i], ns)
		reqs[i].Hints = fetch.MergeHints(reqs[i].Hints, s.hints(ns))
	}

	return reqs, members
}
