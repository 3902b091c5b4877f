package payroll

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH KEY - The period key for an EmployeeMonth
// =============================================================================

// MonthKey identifies one calendar month. Month is 1-12.
type MonthKey struct {
	Month int
	Year  int
}

// Validate checks that the month is within 1-12.
func (k MonthKey) Validate() error {
	if k.Month < 1 || k.Month > 12 {
		return &InvalidPeriodError{Month: k.Month, Year: k.Year, Reason: "month must be between 1 and 12"}
	}
	return nil
}

// Next returns the immediately following month.
func (k MonthKey) Next() MonthKey {
	if k.Month == 12 {
		return MonthKey{Month: 1, Year: k.Year + 1}
	}
	return MonthKey{Month: k.Month + 1, Year: k.Year}
}

// Prev returns the immediately preceding month.
func (k MonthKey) Prev() MonthKey {
	if k.Month == 1 {
		return MonthKey{Month: 12, Year: k.Year - 1}
	}
	return MonthKey{Month: k.Month - 1, Year: k.Year}
}

// Comparison
func (k MonthKey) Equal(o MonthKey) bool { return k == o }
func (k MonthKey) Before(o MonthKey) bool {
	return k.Year < o.Year || (k.Year == o.Year && k.Month < o.Month)
}
func (k MonthKey) After(o MonthKey) bool { return o.Before(k) }

// Days returns the number of calendar days in the month.
// Day 0 of the following month is the last day of this one.
func (k MonthKey) Days() int {
	return time.Date(k.Year, time.Month(k.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Start returns midnight on the 1st of the month in the given location.
func (k MonthKey) Start(loc *time.Location) time.Time {
	return time.Date(k.Year, time.Month(k.Month), 1, 0, 0, 0, 0, loc)
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}
