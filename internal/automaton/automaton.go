// Package automaton models regular property-path queries as finite automata
// whose transitions consume RDF edges in a given direction.
package automaton

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/ldpath/internal/rdf"
)

// StateID indexes the state arena.
type StateID int

// TransitionID indexes the transition arena.
type TransitionID int

// NoState is returned when a lookup finds nothing.
const NoState StateID = -1

// Infinity is the heuristic value of states that cannot reach a goal.
var Infinity = math.Inf(1)

// State is one automaton node.
type State struct {
	ID     StateID
	Name   string
	Filter *NodeFilter
	Accept *NodeFilter
	H      float64

	NextForward  []TransitionID
	NextBackward []TransitionID
	PrevForward  []TransitionID
	PrevBackward []TransitionID
}

// Allows reports whether node may enter the state.
func (s *State) Allows(node rdf.Term) bool {
	return s.Filter == nil || s.Filter.Match(node)
}

// Accepts reports whether node is a goal for the state.
func (s *State) Accepts(node rdf.Term) bool {
	return s.Accept != nil && s.Accept.Match(node)
}

// IsFinal reports whether the state has an accepting filter.
func (s *State) IsFinal() bool { return s.Accept != nil }

// Next returns the outgoing transitions in direction d.
func (s *State) Next(d rdf.Direction) []TransitionID {
	if d == rdf.Backward {
		return s.NextBackward
	}

	return s.NextForward
}

// Transition consumes one edge whose predicate passes Arc.
type Transition struct {
	ID        TransitionID
	Src       StateID
	Dst       StateID
	Arc       ArcFilter
	Direction rdf.Direction
}

// Automaton is a named query: states, transitions and a seed node.
type Automaton struct {
	Name      string
	Start     StateID
	StartNode rdf.Term

	states      []State
	byName      map[string]StateID
	transitions []Transition
	weight      float64
	built       bool
	log         *logrus.Logger
}

// Option configures an Automaton.
type Option func(*Automaton)

// WithLogger sets the logger used for build-time warnings.
func WithLogger(log *logrus.Logger) Option {
	return func(a *Automaton) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an automaton with its start state.
func New(name string, startNode rdf.Term, startState string, filter, accept *NodeFilter, opts ...Option) *Automaton {
	a := &Automaton{
		Name:      name,
		StartNode: startNode,
		byName:    make(map[string]StateID),
		log:       logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.Start = a.AddState(startState, filter, accept)

	return a
}

// AddState registers a state and returns its id. Registering an existing name
// returns the existing state; filters passed with it are ignored with a warning.
func (a *Automaton) AddState(name string, filter, accept *NodeFilter) StateID {
	if id, ok := a.byName[name]; ok {
		if filter != nil || accept != nil {
			a.log.WithFields(logrus.Fields{
				"automaton": a.Name,
				"state":     name,
			}).Warn("state already defined, ignoring new filters")
		}

		return id
	}

	id := StateID(len(a.states))
	a.states = append(a.states, State{ID: id, Name: name, Filter: filter, Accept: accept, H: Infinity})
	a.byName[name] = id

	return id
}

// AddTransition connects origin to dest. The destination state is created when
// missing; the origin must already exist.
func (a *Automaton) AddTransition(origin string, arc ArcFilter, dir rdf.Direction, dest string, destFilter, destAccept *NodeFilter) (TransitionID, error) {
	if a.built {
		return -1, ErrAutomatonBuilt
	}

	src, ok := a.byName[origin]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownState, origin)
	}

	dst := a.AddState(dest, destFilter, destAccept)
	id := TransitionID(len(a.transitions))
	a.transitions = append(a.transitions, Transition{ID: id, Src: src, Dst: dst, Arc: arc, Direction: dir})

	from, to := &a.states[src], &a.states[dst]
	if dir == rdf.Backward {
		from.NextBackward = append(from.NextBackward, id)
		to.PrevBackward = append(to.PrevBackward, id)
	} else {
		from.NextForward = append(from.NextForward, id)
		to.PrevForward = append(to.PrevForward, id)
	}

	return id, nil
}

// ComputeHeuristics assigns every state its minimum transition count to an
// accepting state, scaled by weight, and freezes the automaton.
func (a *Automaton) ComputeHeuristics(weight float64) error {
	if a.built {
		return ErrAutomatonBuilt
	}

	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, weight)
	}

	pq := &hQueue{}

	for i := range a.states {
		a.states[i].H = Infinity
		if a.states[i].IsFinal() {
			a.states[i].H = 0
			heap.Push(pq, hEntry{id: StateID(i), h: 0})
		}
	}

	if pq.Len() == 0 {
		return ErrNoAcceptingState
	}

	for pq.Len() > 0 {
		e := heap.Pop(pq).(hEntry)
		s := &a.states[e.id]

		if e.h > s.H {
			continue
		}

		for _, prev := range [][]TransitionID{s.PrevForward, s.PrevBackward} {
			for _, tid := range prev {
				p := &a.states[a.transitions[tid].Src]
				if p.H > s.H+weight {
					p.H = s.H + weight
					heap.Push(pq, hEntry{id: p.ID, h: p.H})
				}
			}
		}
	}

	var unreachable []string

	for i := range a.states {
		if math.IsInf(a.states[i].H, 1) {
			unreachable = append(unreachable, a.states[i].Name)
		}
	}

	if len(unreachable) > 0 {
		sort.Strings(unreachable)
		return &UnreachableGoalError{States: unreachable}
	}

	a.weight = weight
	a.built = true

	return nil
}

// Built reports whether heuristics were computed.
func (a *Automaton) Built() bool { return a.built }

// Weight returns the heuristic weight used at build time.
func (a *Automaton) Weight() float64 { return a.weight }

// State returns the state with the given id.
func (a *Automaton) State(id StateID) *State { return &a.states[id] }

// StateByName looks a state up by name.
func (a *Automaton) StateByName(name string) (*State, bool) {
	id, ok := a.byName[name]
	if !ok {
		return nil, false
	}

	return &a.states[id], true
}

// Transition returns the transition with the given id.
func (a *Automaton) Transition(id TransitionID) *Transition { return &a.transitions[id] }

// States returns the state arena. Callers must not modify it.
func (a *Automaton) States() []State { return a.states }

// Transitions returns the transition arena. Callers must not modify it.
func (a *Automaton) Transitions() []Transition { return a.transitions }

// PredicatesOf unions the inverses of the state's outgoing arc filters in
// direction d. ok is false as soon as one filter cannot be inverted.
func (a *Automaton) PredicatesOf(id StateID, d rdf.Direction) (preds rdf.TermSet, ok bool) {
	preds = rdf.NewTermSet()

	for _, tid := range a.states[id].Next(d) {
		inv, invertible := a.transitions[tid].Arc.Inverse()
		if !invertible {
			return nil, false
		}

		preds.Union(inv)
	}

	return preds, true
}

// SuccessorH is the smallest heuristic among the state's direct successors.
func (a *Automaton) SuccessorH(id StateID) float64 {
	best := Infinity
	s := &a.states[id]

	for _, next := range [][]TransitionID{s.NextForward, s.NextBackward} {
		for _, tid := range next {
			if h := a.states[a.transitions[tid].Dst].H; h < best {
				best = h
			}
		}
	}

	return best
}

type hEntry struct {
	id StateID
	h  float64
}

type hQueue []hEntry

func (q hQueue) Len() int { return len(q) }

func (q hQueue) Less(i, j int) bool {
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}

	return q[i].id < q[j].id
}

func (q hQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *hQueue) Push(x any) { *q = append(*q, x.(hEntry)) }

func (q *hQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]

	return e
}
