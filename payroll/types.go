/*
Package payroll provides the attendance-to-payroll reconciliation engine.

PURPOSE:
  This package contains the domain types and algorithms for turning daily
  labour attendance into monthly payroll balances: gross wages from attendance
  codes, overtime, discretionary payouts, ad-hoc allowances, and a balance
  carried forward month to month.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeMonth: The central ledger record, one per (employee, site, month, year)
  - Payout: Money already disbursed against the month's earnings (append-only)
  - AdditionalPay: Allowance/bonus added to gross wage, independent of attendance
  - CarryForward: Opening balance inherited from the immediately preceding month
  - AttendanceRevision: Audit snapshot of a prior attendance sheet

DESIGN PRINCIPLES:
  1. Derived values stay derived: ClosingBalance is a cache, always recomputable
     from the other fields and never the source of truth
  2. Precision: Uses decimal.Decimal to avoid floating-point errors in money math
  3. Append semantics: Payouts, additional pays and attendance history are only
     ever appended to; a correction is a new reversing entry, not an edit
  4. Type safety: Strong typing for employee and site identifiers

SEE ALSO:
  - attendance.go: Day-token codec (P/A with overtime suffixes)
  - calculator.go: Wage and closing-balance computation
  - engine.go: Operations exposed to collaborators
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type SiteID string

// =============================================================================
// LEDGER ENTRIES - Append-only lists hanging off an EmployeeMonth
// =============================================================================

// Payout records money already paid out against this month's earnings.
// Entries are never edited in place; a correction is a new reversing entry
// with the opposite sign.
type Payout struct {
	ID         string
	Amount     decimal.Decimal
	Remark     string
	Date       time.Time
	RecordedBy string
}

// AdditionalPay is an allowance or bonus added to gross earnings,
// independent of attendance.
type AdditionalPay struct {
	ID     string
	Amount decimal.Decimal
	Remark string
	Date   time.Time
}

// CarryForward is the single opening balance inherited from the employee's
// immediately preceding month at the same site. Amount may be negative
// (employee owed money) or positive (employee overpaid).
type CarryForward struct {
	Amount decimal.Decimal
	Remark string
	Date   time.Time
}

// AttendanceRevision is one entry of the attendance audit trail: the full
// attendance sheet as it was before an edit, plus who edited and when.
// The history is an ordered append-only sequence, never mutated.
type AttendanceRevision struct {
	RevisionKey string
	Snapshot    []string
	Editor      string
	Timestamp   time.Time
}

// =============================================================================
// EMPLOYEE MONTH - The central entity
// =============================================================================

// EmployeeMonth is the per-employee, per-site, per-calendar-month payroll
// ledger record.
//
// INVARIANTS:
//   - At most one record per (EmployeeID, SiteID, Period); the store's
//     create-if-absent enforces this under concurrent creation.
//   - len(Attendance) equals the number of calendar days in Period.
//   - ClosingBalance == grossWage + sum(AdditionalPays) + CarryForward.Amount
//     - sum(Payouts), recomputable from scratch at any time.
//   - CarryForward.Amount equals the preceding month's ClosingBalance for the
//     same employee and site (the propagator is the only writer).
type EmployeeMonth struct {
	EmployeeID EmployeeID
	SiteID     SiteID
	Period     MonthKey

	// DailyRate is assigned at record creation (or copied by import) and is
	// immutable within the month. Must be >= 0.
	DailyRate decimal.Decimal

	// Attendance holds one day token per calendar day, index 0 = the 1st.
	Attendance []string

	Payouts        []Payout
	AdditionalPays []AdditionalPay
	CarryForward   CarryForward

	// ClosingBalance is the cached result of the last calculator run.
	// Only the calculator path writes it.
	ClosingBalance decimal.Decimal

	// RecalculationNeeded is true when any input changed since ClosingBalance
	// was last computed.
	RecalculationNeeded bool

	AttendanceHistory []AttendanceRevision

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the uniqueness key of the record.
func (em *EmployeeMonth) Key() RecordKey {
	return RecordKey{EmployeeID: em.EmployeeID, SiteID: em.SiteID, Period: em.Period}
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state behind the engine's back.
func (em *EmployeeMonth) Clone() *EmployeeMonth {
	cp := *em
	cp.Attendance = append([]string(nil), em.Attendance...)
	cp.Payouts = append([]Payout(nil), em.Payouts...)
	cp.AdditionalPays = append([]AdditionalPay(nil), em.AdditionalPays...)
	cp.AttendanceHistory = make([]AttendanceRevision, len(em.AttendanceHistory))
	for i, rev := range em.AttendanceHistory {
		cp.AttendanceHistory[i] = rev
		cp.AttendanceHistory[i].Snapshot = append([]string(nil), rev.Snapshot...)
	}
	return &cp
}

// TotalPayouts sums the payout amounts.
func (em *EmployeeMonth) TotalPayouts() decimal.Decimal {
	total := decimal.Zero
	for _, p := range em.Payouts {
		total = total.Add(p.Amount)
	}
	return total
}

// TotalAdditionalPays sums the additional-pay amounts.
func (em *EmployeeMonth) TotalAdditionalPays() decimal.Decimal {
	total := decimal.Zero
	for _, a := range em.AdditionalPays {
		total = total.Add(a.Amount)
	}
	return total
}

// RecordKey identifies one EmployeeMonth.
type RecordKey struct {
	EmployeeID EmployeeID
	SiteID     SiteID
	Period     MonthKey
}

func (k RecordKey) String() string {
	return string(k.EmployeeID) + "@" + string(k.SiteID) + "/" + k.Period.String()
}
