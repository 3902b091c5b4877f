package payroll_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
)

// markAllPresent fills the whole sheet with plain present days.
func markAllPresent(t *testing.T, engine *payroll.Engine, emp payroll.EmployeeID, site payroll.SiteID, period payroll.MonthKey) {
	t.Helper()
	for day := 0; day < period.Days(); day++ {
		require.NoError(t, engine.RecordAttendance(context.Background(), emp, site, period, day, "P", ""))
	}
}

func TestRecalculate_SettlesSingleMonth(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", november())
	require.NoError(t, engine.AddPayout(ctx, "emp-1", "site-1", november(), money("5000"), "advance", ""))

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{november()}, updated)

	em, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	// 30 days * 600 - 5000 = 13000
	assert.True(t, em.ClosingBalance.Equal(money("13000")), "closing = %s", em.ClosingBalance)
	assert.False(t, em.RecalculationNeeded)
}

func TestRecalculate_PropagatesCarryForward(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", december(), money("600"))
	require.NoError(t, err)

	markAllPresent(t, engine, "emp-1", "site-1", november())

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{november(), december()}, updated)

	dec, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", december())
	require.NoError(t, err)
	assert.True(t, dec.CarryForward.Amount.Equal(money("18000")),
		"December opens with November's closing, got %s", dec.CarryForward.Amount)
	assert.True(t, dec.ClosingBalance.Equal(money("18000")),
		"all-absent December closes at its opening balance")
	assert.False(t, dec.RecalculationNeeded, "chain walk settles the successor too")
}

func TestRecalculate_RetroactiveEdit_RipplesForward(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", december(), money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", november())
	_, err = engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)

	// Retroactive correction: day 0 was actually an absence.
	require.NoError(t, engine.RecordAttendance(ctx, "emp-1", "site-1", november(), 0, "A", "auditor"))

	dec, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", december())
	require.NoError(t, err)
	assert.True(t, dec.CarryForward.Amount.Equal(money("18000")),
		"the edit alone must not touch December")

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{november(), december()}, updated)

	dec, err = engine.GetEmployeeMonth(ctx, "emp-1", "site-1", december())
	require.NoError(t, err)
	assert.True(t, dec.CarryForward.Amount.Equal(money("17400")))
	assert.False(t, dec.RecalculationNeeded)
}

func TestRecalculate_MidChainTrigger_SettlesDirtyPredecessorFirst(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	october := payroll.MonthKey{Month: 10, Year: 2024}
	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", october, money("600"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", october)
	_, err = engine.Recalculate(ctx, "emp-1", "site-1", october)
	require.NoError(t, err)

	// Retroactive October correction dirties October only.
	require.NoError(t, engine.RecordAttendance(ctx, "emp-1", "site-1", october, 0, "A", "auditor"))

	// Triggering from November must not settle it against October's stale
	// closing balance.
	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{october, november()}, updated)

	oct, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", october)
	require.NoError(t, err)
	// 30 of 31 days present at 600
	assert.True(t, oct.ClosingBalance.Equal(money("18000")), "closing = %s", oct.ClosingBalance)
	assert.False(t, oct.RecalculationNeeded)

	nov, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.True(t, nov.CarryForward.Amount.Equal(money("18000")),
		"November opens with October's corrected closing, got %s", nov.CarryForward.Amount)
	assert.False(t, nov.RecalculationNeeded)
}

func TestRecalculate_UnchangedBalance_StopsCascade(t *testing.T) {
	engine, mem := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", december(), money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", november())
	_, err = engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)

	// A balance-neutral pair of payouts dirties November without moving
	// its closing balance.
	require.NoError(t, engine.AddPayout(ctx, "emp-1", "site-1", november(), money("1000"), "", ""))
	require.NoError(t, engine.AddPayout(ctx, "emp-1", "site-1", november(), money("-1000"), "reversal", ""))

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{november()}, updated,
		"December's balance did not change and must not be rewritten")

	dec, err := mem.Get(ctx, "emp-1", "site-1", december())
	require.NoError(t, err)
	assert.False(t, dec.RecalculationNeeded)
}

func TestRecalculate_Idempotent(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", november())

	_, err = engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Empty(t, updated, "a clean chain has nothing to rewrite")
}

func TestRecalculate_LongChain_AscendingOrder(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	months := []payroll.MonthKey{
		{Month: 9, Year: 2024},
		{Month: 10, Year: 2024},
		{Month: 11, Year: 2024},
		{Month: 12, Year: 2024},
	}
	for _, m := range months {
		_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", m, money("500"))
		require.NoError(t, err)
	}
	markAllPresent(t, engine, "emp-1", "site-1", months[0])

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", months[0])
	require.NoError(t, err)
	assert.Equal(t, months, updated, "chain settles in ascending period order")

	// September: 30 * 500 = 15000 carried through three all-absent months.
	last, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", months[3])
	require.NoError(t, err)
	assert.True(t, last.ClosingBalance.Equal(money("15000")))
}

func TestRecalculate_GapEndsChain(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// November exists, December missing, January 2025 exists.
	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1",
		payroll.MonthKey{Month: 1, Year: 2025}, money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", november())

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{november()}, updated)

	jan, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", payroll.MonthKey{Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.True(t, jan.CarryForward.Amount.IsZero(),
		"propagation never jumps a missing month")
}

func TestRecalculate_MissingStartMonth_Error(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Recalculate(context.Background(), "emp-1", "site-1", november())
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestRecalculate_ConcurrentTriggers_Converge(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", november(), money("600"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", december(), money("600"))
	require.NoError(t, err)
	markAllPresent(t, engine, "emp-1", "site-1", november())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Recalculate(ctx, "emp-1", "site-1", november())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	dec, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", december())
	require.NoError(t, err)
	assert.True(t, dec.CarryForward.Amount.Equal(money("18000")))
	assert.False(t, dec.RecalculationNeeded)
}
