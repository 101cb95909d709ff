package search

import (
	"math"

	"github.com/persistorai/ldpath/internal/automaton"
	"github.com/persistorai/ldpath/internal/models"
	"github.com/persistorai/ldpath/internal/rdf"
)

// NodeState is the search's view of one node matched against one automaton
// state. There is exactly one per (node, state) pair in a search.
type NodeState struct {
	Node  rdf.Term
	State automaton.StateID

	// Parent, Via and Dir describe the best known way in; G is its length.
	Parent *NodeState
	Via    rdf.Term
	Dir    rdf.Direction
	G      float64

	closed   bool
	reported bool
}

// Closed reports whether the NodeState was extracted for expansion.
func (ns *NodeState) Closed() bool { return ns.closed }

type nsKey struct {
	node  rdf.Term
	state automaton.StateID
}

func newNodeState(node rdf.Term, state automaton.StateID) *NodeState {
	return &NodeState{Node: node, State: state, G: math.Inf(1)}
}

// Path is a chain of NodeStates from the start to a goal.
type Path []*NodeState

// pathTo follows parent links back to the start and copies every NodeState,
// so the path stays stable while the search keeps improving costs.
func pathTo(ns *NodeState) Path {
	var p Path
	for ; ns != nil; ns = ns.Parent {
		cp := *ns
		p = append(p, &cp)
	}

	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}

	for i := range p {
		p[i].Parent = nil
		if i > 0 {
			p[i].Parent = p[i-1]
		}
	}

	return p
}

// Goal returns the last NodeState.
func (p Path) Goal() *NodeState { return p[len(p)-1] }

// Steps converts the path to its serialisable form.
func (p Path) Steps(a *automaton.Automaton) []models.PathStep {
	out := make([]models.PathStep, len(p))

	for i, ns := range p {
		step := models.PathStep{State: a.State(ns.State).Name, Node: ns.Node.Value}
		if i > 0 {
			step.Transition = &models.StepTransition{P: ns.Via.Value, D: ns.Dir.String()}
		}

		out[i] = step
	}

	return out
}

// Valid reports whether p starts at the automaton's start pair, ends in an
// accepted pair and every step follows a transition that admits its
// predicate, direction and node.
func (p Path) Valid(a *automaton.Automaton) bool {
	if len(p) == 0 {
		return false
	}

	first, last := p[0], p.Goal()
	if first.Node != a.StartNode || first.State != a.Start || first.Parent != nil {
		return false
	}

	if !a.State(last.State).Accepts(last.Node) {
		return false
	}

	for i := 1; i < len(p); i++ {
		if !stepValid(a, p[i-1], p[i]) {
			return false
		}
	}

	return true
}

func stepValid(a *automaton.Automaton, from, to *NodeState) bool {
	if to.Parent != from || !a.State(to.State).Allows(to.Node) {
		return false
	}

	for _, tid := range a.State(from.State).Next(to.Dir) {
		t := a.Transition(tid)
		if t.Dst == to.State && t.Arc.Match(to.Via) {
			return true
		}
	}

	return false
}
