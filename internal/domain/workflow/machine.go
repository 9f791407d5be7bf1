package workflow

import (
	"context"
	"errors"
)

var (
	// ErrInvalidTransition is returned when the current state has no transition for a trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when every guarded transition refused the trigger
	ErrGuardFailed = errors.New("guard condition failed")
)

// StateMachine tracks the form state and validates transitions.
// It is not safe for concurrent use; the form controller holds its lock
// around every call.
type StateMachine interface {
	State() State

	// CanFire reports whether the trigger has a transition from the current state
	CanFire(trigger Trigger) bool

	// Fire moves to the target state of the first transition whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// Reset forces the machine into the given state
	Reset(state State)

	PermittedTriggers() []Trigger
}
