package assignment

import (
	"errors"
	"fmt"
	"strings"
)

// Decision is a person's answer to an assignment or reminder message.
type Decision string

const (
	DecisionAvailable   Decision = "available"
	DecisionUnavailable Decision = "unavailable"
	DecisionComplete    Decision = "complete"
	DecisionIncomplete  Decision = "incomplete"
)

// ErrUnknownDecision is returned by ParseDecision for values outside the
// four known decisions.
var ErrUnknownDecision = errors.New("unknown decision")

// ParseDecision decodes an interactive payload value.
func ParseDecision(v string) (Decision, error) {
	d := Decision(strings.ToLower(strings.TrimSpace(v)))
	switch d {
	case DecisionAvailable, DecisionUnavailable, DecisionComplete, DecisionIncomplete:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDecision, v)
}

// Target is the state an assignment moves to when d is received.
func (d Decision) Target() State {
	switch d {
	case DecisionAvailable:
		return StateAvailableWaitingReminder
	case DecisionUnavailable:
		return StateReassigning
	case DecisionComplete:
		return StateComplete
	case DecisionIncomplete:
		return StateIncomplete
	}
	return ""
}

// Label is the button text for d.
func (d Decision) Label() string {
	switch d {
	case DecisionAvailable:
		return "I'm available"
	case DecisionUnavailable:
		return "I'm unavailable"
	case DecisionComplete:
		return "Done"
	case DecisionIncomplete:
		return "Didn't get to it"
	}
	return string(d)
}

// ConfirmationChoices are offered with a new assignment.
var ConfirmationChoices = []Decision{DecisionAvailable, DecisionUnavailable}

// CompletionChoices are offered with the completion reminder.
var CompletionChoices = []Decision{DecisionComplete, DecisionIncomplete}
