/*
errors.go - Centralized error types for the generic layer

PURPOSE:
  Journal and store errors in one place. The leave package defines the
  domain error kinds (invalid leave type, insufficient balance, ...) and
  wraps these where a store failure bubbles up.

ERROR CATEGORIES:
  1. Journal errors   - Duplicate idempotency keys, failed appends
  2. Invariant errors - Internal consistency checks that must never fail

INVARIANT ERRORS:
  An InvariantError means the engine reached a state its own validation
  should have made impossible (e.g. remaining days below zero after a
  debit). It unwraps to ErrInvariantViolation and never to a domain
  sentinel, so callers cannot mistake it for bad input.

SEE ALSO:
  - ledger.go: Uses these errors
  - leave/errors.go: Domain error kinds
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrTransactionFailed is returned when a store transaction cannot be
	// started or committed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvariantViolation marks an internal consistency failure.
	ErrInvariantViolation = errors.New("invariant violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvariantError describes a broken internal invariant. Err, when set, is
// the failure that exposed it.
type InvariantError struct {
	Invariant string // e.g. "remaining >= 0"
	Subject   string // what was being checked
	Detail    string
	Err       error
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("invariant %q violated for %s: %s", e.Invariant, e.Subject, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvariantError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvariantViolation}
	}
	return []error{ErrInvariantViolation, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInvariantViolation reports whether err is or wraps an InvariantError.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsDuplicate reports whether err is a duplicate idempotency key rejection.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateIdempotencyKey)
}
