/*
calculator.go - Wage and closing-balance computation

PURPOSE:
  Computes the monthly totals for one EmployeeMonth. This is the central
  calculation that answers "what is this employee owed?".

ALGORITHM:
  1. Decode every attendance token; count present days, sum overtime hours
     across present AND emergency-absent days.
  2. baseWage    = dailyRate * presentDays
  3. overtimePay = dailyRate * overtimeHours / shiftHours (fractional,
     same effective hourly rate as a normal shift)
  4. grossWage   = floor(baseWage + overtimePay)  - whole currency units
  5. closing     = grossWage + additionalPays + carryForward - payouts

GUARANTEES:
  Pure function of the record: no hidden state, deterministic, idempotent.
  A negative closing balance is valid and meaningful (the employee owes
  back an overpayment). Persisting the result and clearing the dirty flag
  is the engine's job, not the calculator's.

SEE ALSO:
  - attendance.go: Token decoding
  - recalc.go: Chain recomputation driving this calculator
*/
package payroll

import "github.com/shopspring/decimal"

// StandardShiftHours is the length of a normal shift. Overtime hours are
// paid at dailyRate/StandardShiftHours per hour.
const StandardShiftHours = 8

// Totals is the computed breakdown for one employee-month.
type Totals struct {
	PresentDays   int
	OvertimeHours int

	BaseWage    decimal.Decimal
	OvertimePay decimal.Decimal
	GrossWage   decimal.Decimal

	TotalAdditionalPays decimal.Decimal
	TotalPayouts        decimal.Decimal
	ClosingBalance      decimal.Decimal
}

// Calculator derives Totals from an EmployeeMonth.
type Calculator struct {
	ShiftHours int
}

// NewCalculator returns a calculator using the standard shift length.
func NewCalculator() *Calculator {
	return &Calculator{ShiftHours: StandardShiftHours}
}

// Compute derives the full totals for the record. It fails with
// NegativeRateError on a negative daily rate and propagates
// InvalidAttendanceCodeError (with day index) from the codec.
func (c *Calculator) Compute(em *EmployeeMonth) (Totals, error) {
	if em.DailyRate.IsNegative() {
		return Totals{}, &NegativeRateError{EmployeeID: em.EmployeeID, Rate: em.DailyRate.String()}
	}

	codes, err := ParseSheet(em.Attendance)
	if err != nil {
		return Totals{}, err
	}

	presentDays := 0
	overtimeHours := 0
	for _, code := range codes {
		if code.Present {
			presentDays++
		}
		overtimeHours += code.Hours
	}

	baseWage := em.DailyRate.Mul(decimal.NewFromInt(int64(presentDays)))
	overtimePay := em.DailyRate.
		Mul(decimal.NewFromInt(int64(overtimeHours))).
		Div(decimal.NewFromInt(int64(c.ShiftHours)))

	// Estimated wages are floored to the whole currency unit; the fractional
	// part of overtime pay never reaches the balance.
	grossWage := baseWage.Add(overtimePay).Floor()

	additional := em.TotalAdditionalPays()
	payouts := em.TotalPayouts()

	return Totals{
		PresentDays:         presentDays,
		OvertimeHours:       overtimeHours,
		BaseWage:            baseWage,
		OvertimePay:         overtimePay,
		GrossWage:           grossWage,
		TotalAdditionalPays: additional,
		TotalPayouts:        payouts,
		ClosingBalance:      grossWage.Add(additional).Add(em.CarryForward.Amount).Sub(payouts),
	}, nil
}
