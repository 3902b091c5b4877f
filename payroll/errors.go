/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; structured variants carry the
  identifying context (employee, day index, period) needed to pinpoint
  the bad input.

ERROR CATEGORIES:
  1. Validation errors - bad tokens, day indexes, periods, rates
  2. Store errors - missing records, uniqueness violations

PROPAGATION POLICY:
  Validation errors are never retried automatically. Duplicate-creation
  conflicts are expected under concurrent import and are reported per
  employee rather than aborting the batch.

SEE ALSO:
  - attendance.go, calculator.go, importer.go: Producers of these errors
  - api: Maps them to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAttendanceCode is returned for malformed day tokens.
	// Bad data is surfaced, never coerced to absent.
	ErrInvalidAttendanceCode = errors.New("invalid attendance code")

	// ErrOutOfRangeDay is returned when a day index falls beyond the month's
	// calendar day count.
	ErrOutOfRangeDay = errors.New("day index out of range")

	// ErrInvalidPeriod is returned for months outside 1-12 or an import whose
	// target period precedes its source.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrDuplicateRecord is returned when creation would violate the
	// one-record-per-(employee, site, month, year) invariant. Expected under
	// concurrent creation; the first writer wins.
	ErrDuplicateRecord = errors.New("employee month already exists")

	// ErrNegativeRate is a defensive guard on wage input.
	ErrNegativeRate = errors.New("daily rate must not be negative")

	// ErrNotFound is returned for operations on a nonexistent EmployeeMonth.
	ErrNotFound = errors.New("employee month not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidAttendanceCodeError identifies the malformed token and, when known,
// the zero-based day it was found at. DayIndex is -1 outside sheet context.
type InvalidAttendanceCodeError struct {
	DayIndex int
	Token    string
}

func (e *InvalidAttendanceCodeError) Error() string {
	if e.DayIndex < 0 {
		return fmt.Sprintf("invalid attendance code %q", e.Token)
	}
	return fmt.Sprintf("invalid attendance code %q at day %d", e.Token, e.DayIndex)
}

func (e *InvalidAttendanceCodeError) Unwrap() error { return ErrInvalidAttendanceCode }

// OutOfRangeDayError reports a day index beyond the month's day count.
type OutOfRangeDayError struct {
	DayIndex int
	Days     int
}

func (e *OutOfRangeDayError) Error() string {
	return fmt.Sprintf("day index %d out of range for a %d-day month", e.DayIndex, e.Days)
}

func (e *OutOfRangeDayError) Unwrap() error { return ErrOutOfRangeDay }

// InvalidPeriodError reports a malformed or unacceptable period.
type InvalidPeriodError struct {
	Month  int
	Year   int
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period %d/%d: %s", e.Month, e.Year, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error { return ErrInvalidPeriod }

// DuplicateRecordError reports which record key already existed.
type DuplicateRecordError struct {
	Key RecordKey
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("employee month already exists: %s", e.Key)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

// NegativeRateError reports the offending rate.
type NegativeRateError struct {
	EmployeeID EmployeeID
	Rate       string
}

func (e *NegativeRateError) Error() string {
	return fmt.Sprintf("negative daily rate %s for employee %s", e.Rate, e.EmployeeID)
}

func (e *NegativeRateError) Unwrap() error { return ErrNegativeRate }

// NotFoundError reports which record key was missing.
type NotFoundError struct {
	Key RecordKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("employee month not found: %s", e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAttendanceCode) ||
		errors.Is(err, ErrOutOfRangeDay) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrNegativeRate)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate returns true if the error indicates the record already exists.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateRecord)
}
