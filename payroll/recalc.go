/*
recalc.go - Recalculation state machine and chain walk

PURPOSE:
  Implements the dirty-flag protocol that keeps cached closing balances
  consistent under retroactive edits:

    Clean -> Dirty   on attendance edit, payout append, additional-pay
                     append, or carry-forward update (store-level)
    Dirty -> Clean   only here, as a side effect of a completed
                     calculator run

ORDERING INVARIANT:
  A month is never marked clean while an earlier month in the same chain is
  still dirty: the walk proceeds strictly in ascending (month, year) order,
  and each month's balance is computed before its successor's opening
  balance is touched.

CASCADE CONTROL:
  Marking month M dirty does not itself touch M+1. Only after M's closing
  balance is recomputed and found to differ from the previously propagated
  value does the walk push a new carry-forward into M+1 and dirty it. An
  edit that leaves the balance unchanged (a remark correction) stops the
  cascade immediately.

COALESCING:
  Recalculation for one (employee, site) chain never runs concurrently with
  itself. Concurrent triggers serialize on a per-chain lock; the later run
  finds the months already clean and stops at the first unchanged balance.
*/
package payroll

import (
	"context"
	"sync"
)

// Recalculate walks forward from the given period, recomputing every month
// until the chain ends or a month's closing balance comes out unchanged with
// no further dirt downstream. It returns the periods whose balances were
// rewritten, in ascending order. The starting month must exist.
//
// A mid-chain trigger first rewinds to the earliest dirty month among the
// consecutive existing predecessors: a month is never marked clean while an
// earlier month it depends on still has pending changes.
func (e *Engine) Recalculate(ctx context.Context, employeeID EmployeeID, siteID SiteID, from MonthKey) ([]MonthKey, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}

	unlock := e.chains.lock(employeeID, siteID)
	defer unlock()

	start, err := e.rewindToEarliestDirty(ctx, employeeID, siteID, from)
	if err != nil {
		return nil, err
	}

	var updated []MonthKey
	period := start
	for {
		em, err := e.store.Get(ctx, employeeID, siteID, period)
		if err != nil {
			if IsNotFound(err) && !period.Equal(start) {
				// End of the chain.
				return updated, nil
			}
			return updated, err
		}

		totals, err := e.calc.Compute(em)
		if err != nil {
			return updated, err
		}

		if em.RecalculationNeeded || !em.ClosingBalance.Equal(totals.ClosingBalance) {
			if err := e.store.SetComputed(ctx, employeeID, siteID, period, totals.ClosingBalance); err != nil {
				return updated, err
			}
			updated = append(updated, period)
		}

		next, err := e.store.Get(ctx, employeeID, siteID, period.Next())
		if err != nil {
			if IsNotFound(err) {
				return updated, nil
			}
			return updated, err
		}

		if next.CarryForward.Amount.Equal(totals.ClosingBalance) {
			if !next.RecalculationNeeded {
				// Nothing changed downstream and the successor is clean:
				// the cascade stops here.
				return updated, nil
			}
			// Successor is dirty for its own reasons; keep walking without
			// rewriting its opening balance.
		} else {
			cf := NewCarryForward(totals.ClosingBalance, e.clock.Now())
			if err := e.store.SetCarryForward(ctx, employeeID, siteID, period.Next(), cf, true); err != nil {
				return updated, err
			}
		}

		period = period.Next()
	}
}

// rewindToEarliestDirty scans backward through the consecutive existing
// predecessors of from and returns the earliest one that is still dirty, or
// from itself when none is. A missing month ends the scan: a gap ends the
// chain, so months before it do not feed the requested period.
func (e *Engine) rewindToEarliestDirty(ctx context.Context, employeeID EmployeeID, siteID SiteID, from MonthKey) (MonthKey, error) {
	start := from
	for cursor := from.Prev(); ; cursor = cursor.Prev() {
		em, err := e.store.Get(ctx, employeeID, siteID, cursor)
		if err != nil {
			if IsNotFound(err) {
				return start, nil
			}
			return start, err
		}
		if em.RecalculationNeeded {
			start = cursor
		}
	}
}

// =============================================================================
// PER-CHAIN LOCKS
// =============================================================================

type chainKey struct {
	EmployeeID EmployeeID
	SiteID     SiteID
}

// chainLocks serializes recalculation per (employee, site) chain.
type chainLocks struct {
	mu    sync.Mutex
	locks map[chainKey]*sync.Mutex
}

func newChainLocks() *chainLocks {
	return &chainLocks{locks: make(map[chainKey]*sync.Mutex)}
}

func (c *chainLocks) lock(employeeID EmployeeID, siteID SiteID) (unlock func()) {
	key := chainKey{EmployeeID: employeeID, SiteID: siteID}

	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
