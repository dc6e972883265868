package pool

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid pool status transition")

var transitions = map[Status]Status{
	StatusOpen:   StatusLocked,
	StatusLocked: StatusCompleted,
}

// CanTransition reports whether from -> to is a single forward step.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Transition validates a lifecycle step. Statuses only move forward, one step at a time.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// NeedsNumbers reports whether locking must still assign the pool's digits.
func (p Pool) NeedsNumbers() bool {
	switch p.Format {
	case FormatSquares:
		return p.Axis == nil
	case FormatStripCards:
		return len(p.StripNumbers) == 0
	default:
		return false
	}
}
