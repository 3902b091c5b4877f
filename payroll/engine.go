/*
engine.go - Operations exposed to collaborators

PURPOSE:
  The Engine is the single entry point for everything that mutates or reads
  payroll state: record creation, attendance edits, payout and allowance
  appends, recalculation, and cross-month import. Report renderers and
  notification integrations are pure readers of what the engine computes.

MUTATION -> DIRTY -> RECOMPUTE:
  Every input mutation marks the month dirty at the store level. The cached
  closing balance is only refreshed by Recalculate, which walks the month
  chain forward in strict period order (see recalc.go). Route handlers never
  trigger implicit recomputation; the flow is explicit and centralized here.

TIME GATING:
  Attendance edits are gated by the business-timezone Clock: a period that
  has not started yet cannot receive attendance. Retroactive edits to past
  months are allowed - entering attendance after the fact is the normal
  case on a construction site, and the dirty flag keeps balances honest.

SEE ALSO:
  - recalc.go: Chain walk and per-employee serialization
  - importer.go: Cross-month import
  - store.go: Persistence contract
*/
package payroll

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine wires the store, clock and calculator together.
type Engine struct {
	store Store
	clock *Clock
	calc  *Calculator

	chains *chainLocks
}

// NewEngine creates an engine over the given store and clock.
func NewEngine(store Store, clock *Clock) *Engine {
	return &Engine{
		store:  store,
		clock:  clock,
		calc:   NewCalculator(),
		chains: newChainLocks(),
	}
}

// Clock returns the engine's time authority.
func (e *Engine) Clock() *Clock { return e.clock }

// =============================================================================
// READ OPERATIONS
// =============================================================================

// GetEmployeeMonth returns a copy of the record, or ErrNotFound.
func (e *Engine) GetEmployeeMonth(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey) (*EmployeeMonth, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return e.store.Get(ctx, employeeID, siteID, period)
}

// ListSiteMonth returns every record for a site in the given period.
func (e *Engine) ListSiteMonth(ctx context.Context, siteID SiteID, period MonthKey) ([]*EmployeeMonth, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	return e.store.ListBySite(ctx, siteID, period)
}

// ComputeTotals derives the totals breakdown without persisting anything.
// This is the bare query form: the dirty flag is left as-is.
func (e *Engine) ComputeTotals(em *EmployeeMonth) (Totals, error) {
	return e.calc.Compute(em)
}

// VerifyCarryForward reports whether the month's opening balance still equals
// the preceding month's closing balance. A missing predecessor means nothing
// to verify and counts as consistent.
func (e *Engine) VerifyCarryForward(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey) (bool, error) {
	target, err := e.store.Get(ctx, employeeID, siteID, period)
	if err != nil {
		return false, err
	}
	source, err := e.store.Get(ctx, employeeID, siteID, period.Prev())
	if IsNotFound(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !CarryForwardStale(source, target), nil
}

// =============================================================================
// RECORD CREATION (direct entry)
// =============================================================================

// CreateEmployeeMonth creates a record by direct entry: a fresh all-absent
// sheet sized to the period, no payouts, no history, zero opening balance.
// The record starts dirty so the first recalculation establishes its balance.
func (e *Engine) CreateEmployeeMonth(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, dailyRate decimal.Decimal) (*EmployeeMonth, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if dailyRate.IsNegative() {
		return nil, &NegativeRateError{EmployeeID: employeeID, Rate: dailyRate.String()}
	}

	now := e.clock.Now()
	em := &EmployeeMonth{
		EmployeeID:          employeeID,
		SiteID:              siteID,
		Period:              period,
		DailyRate:           dailyRate,
		Attendance:          NewAbsentSheet(period.Days()),
		CarryForward:        ZeroCarryForward(now),
		RecalculationNeeded: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := e.store.Create(ctx, em); err != nil {
		return nil, err
	}
	return em, nil
}

// =============================================================================
// INPUT MUTATIONS
// =============================================================================

// RecordAttendance sets one day's token. The previous sheet is snapshotted
// into the audit history before the edit lands. Fails with
// InvalidAttendanceCode, OutOfRangeDay, or InvalidPeriod for a period that
// has not started in the business timezone.
func (e *Engine) RecordAttendance(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, dayIndex int, token, editor string) error {
	if err := period.Validate(); err != nil {
		return err
	}
	if e.clock.IsFuture(period) {
		return &InvalidPeriodError{Month: period.Month, Year: period.Year, Reason: "attendance cannot be recorded for a future period"}
	}
	if _, err := ParseDayCode(token); err != nil {
		return &InvalidAttendanceCodeError{DayIndex: dayIndex, Token: token}
	}

	em, err := e.store.Get(ctx, employeeID, siteID, period)
	if err != nil {
		return err
	}
	if dayIndex < 0 || dayIndex >= len(em.Attendance) {
		return &OutOfRangeDayError{DayIndex: dayIndex, Days: len(em.Attendance)}
	}

	prior := append([]string(nil), em.Attendance...)
	updated := append([]string(nil), em.Attendance...)
	updated[dayIndex] = token

	rev := AttendanceRevision{
		RevisionKey: uuid.NewString(),
		Snapshot:    prior,
		Editor:      editor,
		Timestamp:   e.clock.Now(),
	}
	return e.store.SetAttendance(ctx, employeeID, siteID, period, updated, rev)
}

// AddPayout appends a payout entry. Negative amounts are legitimate: an
// erroneous payout is corrected by a reversing entry, never an edit.
func (e *Engine) AddPayout(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, amount decimal.Decimal, remark, recordedBy string) error {
	if err := period.Validate(); err != nil {
		return err
	}
	return e.store.AppendPayout(ctx, employeeID, siteID, period, Payout{
		ID:         uuid.NewString(),
		Amount:     amount,
		Remark:     remark,
		Date:       e.clock.Now(),
		RecordedBy: recordedBy,
	})
}

// AddAdditionalPay appends an allowance/bonus entry.
func (e *Engine) AddAdditionalPay(ctx context.Context, employeeID EmployeeID, siteID SiteID, period MonthKey, amount decimal.Decimal, remark string) error {
	if err := period.Validate(); err != nil {
		return err
	}
	return e.store.AppendAdditionalPay(ctx, employeeID, siteID, period, AdditionalPay{
		ID:     uuid.NewString(),
		Amount: amount,
		Remark: remark,
		Date:   e.clock.Now(),
	})
}
