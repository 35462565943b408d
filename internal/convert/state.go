package convert

import (
	"fmt"
	"slices"
)

// State is a position in the conversion state machine.
type State string

const (
	StateIdle             State = "idle"
	StateFetchingMetadata State = "fetching_metadata"
	StateListingTree      State = "listing_tree"
	StateClassifying      State = "classifying"
	StateTransforming     State = "transforming"
	StateDone             State = "done"
	StateFailed           State = "failed"
	StateCancelled        State = "cancelled"
)

// transitions lists the legal successors of each state. Failed is only
// reachable from the network stages; every non-terminal state may be
// cancelled.
var transitions = map[State][]State{
	StateIdle:             {StateFetchingMetadata, StateFailed, StateCancelled},
	StateFetchingMetadata: {StateListingTree, StateFailed, StateCancelled},
	StateListingTree:      {StateClassifying, StateFailed, StateCancelled},
	StateClassifying:      {StateTransforming, StateDone, StateCancelled},
	StateTransforming:     {StateDone, StateCancelled},
}

// Terminal reports whether s ends a conversion.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// CanTransition reports whether the machine may move from s to next.
func (s State) CanTransition(next State) bool {
	return slices.Contains(transitions[s], next)
}

// machine tracks one conversion's state and the path it took.
type machine struct {
	current State
	history []State
}

func newMachine() *machine {
	return &machine{current: StateIdle, history: []State{StateIdle}}
}

func (m *machine) to(next State) error {
	if !m.current.CanTransition(next) {
		return fmt.Errorf("illegal conversion state transition %s -> %s", m.current, next)
	}
	m.current = next
	m.history = append(m.history, next)
	return nil
}
