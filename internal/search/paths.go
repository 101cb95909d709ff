package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/fetch"
	"github.com/persistorai/ldpath/internal/metrics"
	"github.com/persistorai/ldpath/internal/rdf"
)

// Paths runs the search and streams every path found, in discovery order.
// The channel is closed when the frontier is exhausted, the answer limit is
// reached or ctx is cancelled. Callers must drain it or cancel ctx.
func (s *Search) Paths(ctx context.Context) <-chan Path {
	out := make(chan Path)
	go s.loop(ctx, out)

	return out
}

// run holds the state of one Paths call.
type run struct {
	*Search

	ctx      context.Context
	out      chan<- Path
	pool     *fetch.Pool
	deadline time.Time
	answers  int
	fetching bool
}

func (s *Search) loop(parent context.Context, out chan<- Path) {
	defer close(out)

	// The inner context unblocks the pool collector when the loop stops early.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	metrics.ActiveSearches.Inc()
	defer metrics.ActiveSearches.Dec()

	s.setup()

	pool := fetch.NewPool(s.opts.ParallelRequests, s.opts.FetchTimeout, s.log)
	defer pool.Close()

	r := &run{Search: s, ctx: ctx, out: out, pool: pool, fetching: true}
	if s.opts.Limits.Time > 0 {
		r.deadline = s.opts.Clock().Add(s.opts.Limits.Time)
	}

	log := s.log.WithFields(logrus.Fields{
		"automaton": s.a.Name,
		"algorithm": s.opts.Algorithm.String(),
		"start":     s.a.StartNode.String(),
	})
	log.Info("search started")

	if r.execute() {
		log.WithField("goals", r.answers).Info("search finished")
	}
}

// execute drives the batches. It returns false when the search stopped
// before the frontier was exhausted.
func (r *run) execute() bool {
	start := r.get(r.a.StartNode, r.a.Start)
	start.G = 0
	r.enqueue(start)

	if r.opts.QuickGoal && r.a.State(r.a.Start).Accepts(r.a.StartNode) {
		start.reported = true
		if !r.emit(start) {
			return false
		}
	}

	for batch := 1; ; batch++ {
		if r.open.empty() {
			// One more sweep once the frontier drains; stop when it brings
			// nothing back.
			r.checkLimits()

			if !r.fetching || r.opts.RetryEvery <= 0 || len(r.recovering) == 0 {
				return true
			}

			recovered, ok := r.retry()
			if !ok {
				return false
			}

			if recovered == 0 || r.open.empty() {
				return true
			}
		}

		if err := r.ctx.Err(); err != nil {
			r.log.WithError(err).Info("search cancelled")
			return false
		}

		r.checkLimits()

		t := r.extractTopTier(r.opts.BatchSize)
		r.stats.Batch()

		if !r.opts.QuickGoal {
			for _, g := range t.Goals {
				g.reported = true
				if !r.emit(g) {
					return false
				}
			}
		}

		for _, ns := range t.Local {
			if !r.expandAndEmit(ns, 0, 0, true) {
				return false
			}
		}

		if len(t.Remote) > 0 && !r.load(t.Remote) {
			return false
		}

		if r.fetching && r.opts.RetryEvery > 0 && batch%r.opts.RetryEvery == 0 {
			if _, ok := r.retry(); !ok {
				return false
			}
		}
	}
}

// emit sends the path to ns. It returns false when the search must stop.
func (r *run) emit(ns *NodeState) bool {
	r.stats.Goal()
	r.answers++

	select {
	case r.out <- pathTo(ns):
	case <-r.ctx.Done():
		return false
	}

	if lim := r.opts.Limits.Answers; lim > 0 && r.answers >= lim {
		r.log.WithField("answers", r.answers).Info("answer limit reached")
		return false
	}

	return true
}

func (r *run) expandAndEmit(ns *NodeState, triples int, elapsed time.Duration, local bool) bool {
	goals := r.expand(ns)
	r.stats.Expand(ns.Node.Value, triples, elapsed, local)

	for _, g := range goals {
		if !r.emit(g) {
			return false
		}
	}

	return true
}

// checkLimits turns fetching off once the triple or time budget is spent.
// The search then goes on over the graph it already has.
func (r *run) checkLimits() {
	if !r.fetching {
		return
	}

	var reason string

	switch {
	case r.opts.Limits.Triples > 0 && r.graph.Len() > r.opts.Limits.Triples:
		reason = fmt.Sprintf("triple limit %d reached", r.opts.Limits.Triples)
	case !r.deadline.IsZero() && r.opts.Clock().After(r.deadline):
		reason = fmt.Sprintf("time limit %s reached", r.opts.Limits.Time)
	default:
		return
	}

	r.fetching = false
	r.log.WithField("triples", r.graph.Len()).Warn(reason + ", no more fetches")
}

// load fetches the nodes of the remote bucket and expands every NodeState
// once its node is in. Nodes that fail or time out are marked failed and
// expanded over whatever the graph already holds.
func (r *run) load(remote []*NodeState) bool {
	if !r.fetching {
		for _, ns := range remote {
			if !r.expandAndEmit(ns, 0, 0, true) {
				return false
			}
		}

		return true
	}

	reqs, members := r.requests(remote)
	done := make([]bool, len(reqs))

	for resp := range r.pool.Map(r.ctx, r.fetcher, reqs) {
		i := resp.Request.Index
		done[i] = true

		r.graph.InsertAll(resp.Triples)

		if resp.Failed || len(resp.Triples) == 0 {
			r.fail(resp.Request.Node, members[i], resp.Err)
		} else {
			r.graph.MarkLoaded(resp.Request.Node)
		}

		for j, ns := range members[i] {
			triples, elapsed := 0, time.Duration(0)
			if j == 0 {
				triples, elapsed = len(resp.Triples), resp.Elapsed
			}

			if !r.expandAndEmit(ns, triples, elapsed, false) {
				return false
			}
		}
	}

	if r.ctx.Err() != nil {
		return false
	}

	for i, ok := range done {
		if ok {
			continue
		}

		r.fail(reqs[i].Node, members[i], fetch.ErrPoolTimeout)

		for _, ns := range members[i] {
			if !r.expandAndEmit(ns, 0, 0, true) {
				return false
			}
		}
	}

	return true
}

// sweepBudget is the time one retry sweep may take: the fetch timeout, or
// what is left of the time limit when that is shorter.
func (r *run) sweepBudget() time.Duration {
	budget := r.opts.FetchTimeout
	if r.deadline.IsZero() {
		return budget
	}

	if left := r.deadline.Sub(r.opts.Clock()); left < budget {
		budget = left
	}

	return budget
}

// fail records node as loaded but failed and keeps its NodeStates for
// re-expansion after a successful retry.
func (r *run) fail(node rdf.Term, members []*NodeState, cause error) {
	err := ErrFetchFailure
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrFetchFailure, cause)
	}

	r.log.WithError(err).WithField("iri", node.Value).Warn("node could not be loaded")

	r.graph.MarkLoaded(node)
	r.graph.MarkFailed(node)
	r.recovering[node] = append(r.recovering[node], members...)
}

// retry loads failed nodes again, one at a time, and re-expands the
// NodeStates of every node that now has data. A sweep shares one fetch
// timeout, never runs past the time limit and stops once the triple limit
// trips; nodes it did not reach stay failed. It returns how many nodes came
// back and false when the search must stop.
func (r *run) retry() (int, bool) {
	r.checkLimits()

	if !r.fetching || len(r.graph.Failed()) == 0 {
		return 0, true
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.sweepBudget())
	defer cancel()

	attempts := r.graph.RetryFailed(ctx, func(ctx context.Context, node rdf.Term) ([]rdf.Triple, error) {
		if r.checkLimits(); !r.fetching {
			cancel()
			return nil, ErrLimitReached
		}

		var hints fetch.Hints
		for _, ns := range r.recovering[node] {
			hints = fetch.MergeHints(hints, r.hints(ns))
		}

		return fetch.Do(ctx, r.fetcher, fetch.Request{Node: node, Hints: hints})
	})

	nodes := make([]rdf.Term, 0, len(r.recovering))
	for node := range r.recovering {
		nodes = append(nodes, node)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Less(nodes[j]) })

	recovered := 0

	for _, node := range nodes {
		if r.graph.IsFailed(node) {
			continue
		}

		members := r.recovering[node]

		delete(r.recovering, node)
		recovered++

		for _, ns := range members {
			if !r.expandAndEmit(ns, 0, 0, false) {
				return recovered, false
			}
		}
	}

	r.log.WithFields(logrus.Fields{
		"attempts":  attempts,
		"recovered": recovered,
	}).Debug("retried failed nodes")

	return recovered, r.ctx.Err() == nil
}
