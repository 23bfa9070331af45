// Package interview defines the interview state machine and the scheduling
// and reschedule negotiation between a practice and a candidate.
//
// Valid status graph:
//
//	scheduled ──► confirmed ──► completed
//	    │  ▲          │
//	    │  └──────────┤ (reschedule approved)
//	    │             │
//	    └─────────────┴──► cancelled
//
// completed and cancelled are terminal states.
package interview

import "fmt"

// Status values mirror the interviews.status CHECK constraint.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusScheduled, StatusCompleted, StatusCancelled},
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusScheduled, StatusConfirmed, StatusCancelled, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown interview status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s Status) bool {
	_, ok := validTransitions[s]
	return !ok
}

// AllowsChat reports whether an interview in status s authorizes direct
// messaging between its participants.
func AllowsChat(s Status) bool { return s == StatusConfirmed || s == StatusCompleted }
