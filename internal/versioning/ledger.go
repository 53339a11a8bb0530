package versioning

import (
	"errors"
	"fmt"
)

// MaxProfileVersion is a sanity cap on profile versions. Hitting it means a
// runaway bump loop somewhere upstream, not legitimate profile activity.
const MaxProfileVersion = 1_000_000

// InitialVersion is the version assigned to a freshly created profile.
const InitialVersion = 1

var (
	ErrInvalidTransition = errors.New("invalid profile version transition")
	ErrVersionOverflow   = errors.New("profile version overflow")
)

// TransitionError carries the rejected pair alongside ErrInvalidTransition so
// callers can log the exact values that violated the invariant.
type TransitionError struct {
	Old    int
	New    int
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid profile version transition %d -> %d: %s", e.Old, e.New, e.Reason)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NextVersion returns the only legal successor of current.
func NextVersion(current int) int { return current + 1 }

// ValidateTransition enforces the "+1, never skip, never decrement" invariant.
// Violations indicate a bug in the profile write path and are never retried.
func ValidateTransition(old, new int) error {
	if old < 0 {
		return &TransitionError{Old: old, New: new, Reason: "current version is negative"}
	}
	if new <= old {
		if new == old {
			return &TransitionError{Old: old, New: new, Reason: "version must increase"}
		}
		return &TransitionError{Old: old, New: new, Reason: "version cannot decrement"}
	}
	if new != old+1 {
		return &TransitionError{Old: old, New: new, Reason: "version must increment by 1"}
	}
	if new > MaxProfileVersion {
		return fmt.Errorf("version %d exceeds cap %d: %w", new, MaxProfileVersion, ErrVersionOverflow)
	}
	return nil
}
