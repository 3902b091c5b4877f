package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CARRY FORWARD - Opening balance propagation between consecutive months
// =============================================================================

// CarryForwardRemark is the remark written on every propagated opening balance.
const CarryForwardRemark = "carried forward"

// NewCarryForward builds the opening-balance entry for a month whose
// predecessor closed at the given amount.
func NewCarryForward(amount decimal.Decimal, at time.Time) CarryForward {
	return CarryForward{Amount: amount, Remark: CarryForwardRemark, Date: at}
}

// ZeroCarryForward is the opening balance of a month with no inherited debt
// or credit (first month at a site, or an import without balance carry-over).
func ZeroCarryForward(at time.Time) CarryForward {
	return CarryForward{Amount: decimal.Zero, Date: at}
}

// CarryForwardStale reports whether the target month's recorded opening
// balance no longer equals the source month's current closing balance.
// Drift alone is sufficient cause to mark the target dirty: however the
// mismatch arose, the target's cached balance can no longer be trusted.
func CarryForwardStale(source, target *EmployeeMonth) bool {
	return !target.CarryForward.Amount.Equal(source.ClosingBalance)
}
