/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Stores return these sentinels for missing records; domain packages wrap
  them with additional context.

ERROR CATEGORIES:
  1. Lookup errors - employee, designation or payslip does not exist
  2. Validation errors - malformed dates, times, rates or periods
  3. Lifecycle errors - payslip status transitions that are not allowed

USAGE:
    if errors.Is(err, generic.ErrEmployeeNotFound) {
        // treat as "nothing to add"
    }

SEE ALSO:
  - store/sqlite/sqlite.go: maps sql.ErrNoRows to these sentinels
  - payslip/merge.go: swallows lookup errors at the merge boundary
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
	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrDesignationNotFound is returned when a referenced designation doesn't exist.
	ErrDesignationNotFound = errors.New("designation not found")

	// ErrPayslipNotFound is returned when a referenced payslip doesn't exist.
	ErrPayslipNotFound = errors.New("payslip not found")

	// ErrInvalidPeriod is returned when a period is malformed (missing or end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrMalformedTime is returned for unparsable dates, times of day or checkouts.
	ErrMalformedTime = errors.New("malformed time")

	// ErrInvalidRate is returned for negative rates.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrDuplicateComponent is returned when a line collection repeats a component name.
	ErrDuplicateComponent = errors.New("duplicate salary component")

	// ErrUnknownComponent is returned when a component name is not registered.
	ErrUnknownComponent = errors.New("unknown salary component")

	// ErrInvalidTransition is returned when a payslip status change is not allowed.
	ErrInvalidTransition = errors.New("invalid payslip status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field and value.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransitionError provides details about a refused status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move payslip from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrDesignationNotFound) ||
		errors.Is(err, ErrPayslipNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMalformedTime) ||
		errors.Is(err, ErrInvalidRate) ||
		errors.Is(err, ErrDuplicateComponent) ||
		errors.Is(err, ErrUnknownComponent)
}
