package assignment

import (
	"errors"
	"fmt"
	"strings"
)

type State string

const (
	StatePendingConfirmation      State = "pending_confirmation"
	StateAvailableWaitingReminder State = "available_waiting_reminder"
	StateReassigning              State = "reassigning"
	StateComplete                 State = "complete"
	StateIncomplete               State = "incomplete"
	StateUnassigned               State = "unassigned"
)

// ErrInvalidTransition is returned when a state change is not an edge of
// the assignment lifecycle.
var ErrInvalidTransition = errors.New("invalid assignment transition")

var transitions = map[State][]State{
	StatePendingConfirmation:      {StateAvailableWaitingReminder, StateReassigning},
	StateAvailableWaitingReminder: {StateComplete, StateIncomplete},
	StateReassigning:              {StatePendingConfirmation, StateUnassigned},
}

// Terminal reports whether no further transitions leave s.
func (s State) Terminal() bool {
	switch s {
	case StateComplete, StateIncomplete, StateUnassigned:
		return true
	}
	return false
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns to, or an error wrapping
// ErrInvalidTransition.
func Transition(from, to State) (State, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Label is the short status text shown to people for s.
func (s State) Label() string {
	switch s {
	case StatePendingConfirmation:
		return "Waiting for confirmation"
	case StateAvailableWaitingReminder:
		return "Accepted"
	case StateReassigning:
		return "Declined, finding someone else"
	case StateComplete:
		return "Completed"
	case StateIncomplete:
		return "Not completed"
	case StateUnassigned:
		return "Unassigned"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}
