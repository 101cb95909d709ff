package automaton

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is the root of every automaton build error.
var ErrConfiguration = errors.New("automaton configuration error")

// Sentinel configuration errors.
var (
	ErrUnknownState     = fmt.Errorf("%w: unknown state", ErrConfiguration)
	ErrNoAcceptingState = fmt.Errorf("%w: no accepting state", ErrConfiguration)
	ErrAutomatonBuilt   = fmt.Errorf("%w: automaton already built", ErrConfiguration)
	ErrNotBuilt         = fmt.Errorf("%w: heuristics not computed", ErrConfiguration)
	ErrInvalidWeight    = fmt.Errorf("%w: heuristic weight must be positive", ErrConfiguration)
	ErrInvalidFilter    = fmt.Errorf("%w: invalid filter", ErrConfiguration)
)

// UnreachableGoalError lists states that cannot reach any accepting state.
type UnreachableGoalError struct {
	States []string
}

// Error implements error.
func (e *UnreachableGoalError) Error() string {
	return fmt.Sprintf("%v: states cannot reach an accepting state: %s", ErrConfiguration, strings.Join(e.States, ", "))
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *UnreachableGoalError) Unwrap() error { return ErrConfiguration }
