package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidGenerationOutput marks generation output that failed schema
	// validation. Not cached, not retried here; callers retry with backoff or
	// fall back to the previous cached version.
	ErrInvalidGenerationOutput = errors.New("invalid generation output")

	// ErrBatchIdentityMismatch marks a batch whose output job-id set differs
	// from its input. A defect in the generation call, surfaced rather than
	// reconciled.
	ErrBatchIdentityMismatch = errors.New("batch identity mismatch")
)

// GenerationOutputError carries the validation diagnostics alongside
// ErrInvalidGenerationOutput.
type GenerationOutputError struct {
	Op          string
	Diagnostics []string
}

func (e *GenerationOutputError) Error() string {
	return fmt.Sprintf("%s: invalid generation output: %s", e.Op, strings.Join(e.Diagnostics, "; "))
}

func (e *GenerationOutputError) Unwrap() error { return ErrInvalidGenerationOutput }

// BatchIdentityError reports exactly which ids were dropped or invented by the
// generation call.
type BatchIdentityError struct {
	Op      string
	Missing []uuid.UUID
	Extra   []uuid.UUID
}

func (e *BatchIdentityError) Error() string {
	return fmt.Sprintf("%s: output id set differs from input (missing=%d extra=%d)", e.Op, len(e.Missing), len(e.Extra))
}

func (e *BatchIdentityError) Unwrap() error { return ErrBatchIdentityMismatch }
