/*
store.go - Persistence interface for employee-month records

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage.

KEY CONTRACTS:
  CREATE-IF-ABSENT:
    Create is atomic per record key. A second concurrent attempt to create
    the same (employee, site, month, year) fails with ErrDuplicateRecord
    rather than overwriting - this is the enforcement mechanism for the
    uniqueness invariant and for import races.

  APPEND SEMANTICS:
    AppendPayout and AppendAdditionalPay are single-entry appends. Two
    concurrent appends must both land; there is no read-modify-write of the
    list at the store boundary. Attendance revisions are appended alongside
    the sheet they replace.

  DIRTY FLAG TRAVELS WITH THE MUTATION:
    Every input mutation (attendance write, payout append, additional-pay
    append) sets RecalculationNeeded in the same store operation, so a crash
    between "change input" and "flag stale" cannot leave a clean record with
    a stale balance. SetComputed is the only operation that clears the flag.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - payroll/store: In-memory store for testing

SEE ALSO:
  - engine.go: The only consumer of this interface
*/
package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store handles persistence of EmployeeMonth records.
type Store interface {
	// Create persists a new record. Fails with ErrDuplicateRecord if the
	// (employee, site, month, year) key already exists; the existing record
	// is left untouched.
	Create(ctx context.Context, em *EmployeeMonth) error

	// Get returns a copy of the record, or ErrNotFound.
	Get(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey) (*EmployeeMonth, error)

	// SetAttendance replaces the attendance sheet, appends the audit revision
	// holding the prior sheet, and marks the record dirty.
	SetAttendance(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, tokens []string, rev AttendanceRevision) error

	// AppendPayout appends one payout entry and marks the record dirty.
	AppendPayout(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, p Payout) error

	// AppendAdditionalPay appends one additional-pay entry and marks the
	// record dirty.
	AppendAdditionalPay(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, p AdditionalPay) error

	// SetCarryForward replaces the opening balance. markDirty is the
	// propagator's decision: an unchanged amount must not cascade.
	SetCarryForward(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, cf CarryForward, markDirty bool) error

	// SetComputed persists a freshly computed closing balance and clears the
	// dirty flag. Only the calculator path calls this.
	SetComputed(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, closing decimal.Decimal) error

	// MarkDirty flags the record for recalculation without touching inputs.
	MarkDirty(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey) error

	// ListBySite returns copies of all records at a site for one period.
	ListBySite(ctx context.Context, siteID SiteID, period MonthKey) ([]*EmployeeMonth, error)

	// ListDirty returns the keys of all records flagged for recalculation,
	// in ascending period order per (employee, site).
	ListDirty(ctx context.Context) ([]RecordKey, error)
}
