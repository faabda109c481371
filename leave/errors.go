/*
errors.go - Domain error kinds of the leave engine

PURPOSE:
  Every failure the engine reports to a caller is one of the sentinels
  below, optionally wrapped in a structured error that carries context
  (the offending input, the available balance, ...). Adapters map kinds to
  transport codes through Kind().

ERROR CATEGORIES:
  1. Directory errors  - Invalid or duplicate employee, unknown employee
  2. Validation errors - Leave type, date format, date range, past dates
  3. Balance errors    - Insufficient balance
  4. Lifecycle errors  - Unknown request, wrong owner, invalid decision or transition

INVARIANT VIOLATIONS:
  Broken internal invariants surface as *generic.InvariantError. They do
  not match any sentinel in this file and Kind() reports them as
  "invariant_violation".

SEE ALSO:
  - generic/errors.go: Journal and invariant errors
  - api/handlers.go: Maps Kind() to HTTP status codes
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrInvalidEmployee     = errors.New("invalid employee")
	ErrDuplicateEmployee   = errors.New("employee already exists")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInvalidLeaveType    = errors.New("invalid leave type")
	ErrInvalidDateFormat   = errors.New("invalid date format")
	ErrInvalidDateRange    = errors.New("start date is after end date")
	ErrPastDateNotAllowed  = errors.New("cannot apply for leave in the past")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrRequestNotFound     = errors.New("leave request not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports the remaining days against the days asked
// for. Missing is set when no balance row exists at all.
type InsufficientBalanceError struct {
	EmployeeID string
	LeaveType  LeaveType
	Available  int
	Requested  int
	Missing    bool
}

func (e *InsufficientBalanceError) Error() string {
	if e.Missing {
		return fmt.Sprintf("no %s balance for employee %s", e.LeaveType, e.EmployeeID)
	}
	return fmt.Sprintf("insufficient %s balance for employee %s: available %d days, requested %d days",
		e.LeaveType, e.EmployeeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// DateFormatError carries the text that matched none of the accepted layouts.
type DateFormatError struct {
	Field string // "start_date" or "end_date"
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: use YYYY-MM-DD, DD/MM/YYYY, MM/DD/YYYY or DD-MM-YYYY", e.Field, e.Value)
}

func (e *DateFormatError) Unwrap() error {
	return ErrInvalidDateFormat
}

// LeaveTypeError carries the unrecognized leave type text.
type LeaveTypeError struct {
	Value string
}

func (e *LeaveTypeError) Error() string {
	return fmt.Sprintf("invalid leave type %q", e.Value)
}

func (e *LeaveTypeError) Unwrap() error {
	return ErrInvalidLeaveType
}

// EmployeeError explains why an employee record was rejected.
type EmployeeError struct {
	ID     string
	Reason string
}

func (e *EmployeeError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid employee: %s", e.Reason)
	}
	return fmt.Sprintf("invalid employee %s: %s", e.ID, e.Reason)
}

func (e *EmployeeError) Unwrap() error {
	return ErrInvalidEmployee
}

// TransitionError reports a request that cannot move from its current status.
type TransitionError struct {
	RequestID string
	From      Status
	To        Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %s cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// Kind codes returned by Kind.
const (
	KindInvalidEmployee     = "invalid_employee"
	KindDuplicateEmployee   = "duplicate_employee"
	KindEmployeeNotFound    = "employee_not_found"
	KindInvalidLeaveType    = "invalid_leave_type"
	KindInvalidDateFormat   = "invalid_date_format"
	KindInvalidDateRange    = "invalid_date_range"
	KindPastDateNotAllowed  = "past_date_not_allowed"
	KindInsufficientBalance = "insufficient_balance"
	KindRequestNotFound     = "request_not_found"
	KindNotAuthorized       = "not_authorized"
	KindInvalidDecision     = "invalid_decision"
	KindInvalidTransition   = "invalid_transition"
	KindInvariantViolation  = "invariant_violation"
	KindInternal            = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidEmployee, KindInvalidEmployee},
	{ErrDuplicateEmployee, KindDuplicateEmployee},
	{ErrEmployeeNotFound, KindEmployeeNotFound},
	{ErrInvalidLeaveType, KindInvalidLeaveType},
	{ErrInvalidDateFormat, KindInvalidDateFormat},
	{ErrInvalidDateRange, KindInvalidDateRange},
	{ErrPastDateNotAllowed, KindPastDateNotAllowed},
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrRequestNotFound, KindRequestNotFound},
	{ErrNotAuthorized, KindNotAuthorized},
	{ErrInvalidDecision, KindInvalidDecision},
	{ErrInvalidTransition, KindInvalidTransition},
}

// Kind returns a stable code for err. Nil yields "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if generic.IsInvariantViolation(err) {
		return KindInvariantViolation
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsClientError reports whether err was caused by the caller's input rather
// than by the engine or its store.
func IsClientError(err error) bool {
	switch Kind(err) {
	case "", KindInternal, KindInvariantViolation:
		return false
	}
	return true
}
