package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

func record(period payroll.MonthKey) *payroll.EmployeeMonth {
	return &payroll.EmployeeMonth{
		EmployeeID:          "emp-1",
		SiteID:              "site-1",
		Period:              period,
		DailyRate:           decimal.NewFromInt(600),
		Attendance:          payroll.NewAbsentSheet(period.Days()),
		CarryForward:        payroll.ZeroCarryForward(time.Now()),
		RecalculationNeeded: true,
	}
}

func TestMemory_CloneIsolation(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	period := payroll.MonthKey{Month: 11, Year: 2024}

	require.NoError(t, m.Create(ctx, record(period)))

	got, err := m.Get(ctx, "emp-1", "site-1", period)
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	got.Attendance[0] = "P16"
	got.Payouts = append(got.Payouts, payroll.Payout{ID: "rogue"})

	again, err := m.Get(ctx, "emp-1", "site-1", period)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Attendance[0])
	assert.Empty(t, again.Payouts)
}

func TestMemory_CreateDuplicate_KeepsOriginal(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	period := payroll.MonthKey{Month: 11, Year: 2024}

	require.NoError(t, m.Create(ctx, record(period)))

	dup := record(period)
	dup.DailyRate = decimal.NewFromInt(999)
	err := m.Create(ctx, dup)
	assert.ErrorIs(t, err, payroll.ErrDuplicateRecord)

	got, err := m.Get(ctx, "emp-1", "site-1", period)
	require.NoError(t, err)
	assert.True(t, got.DailyRate.Equal(decimal.NewFromInt(600)))
}

func TestMemory_ListDirty_Ordering(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	dec := payroll.MonthKey{Month: 12, Year: 2024}
	nov := payroll.MonthKey{Month: 11, Year: 2024}
	for _, p := range []payroll.MonthKey{dec, nov} {
		require.NoError(t, m.Create(ctx, record(p)))
	}

	keys, err := m.ListDirty(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, nov, keys[0].Period, "earliest dirty month first")

	require.NoError(t, m.SetComputed(ctx, "emp-1", "site-1", nov, decimal.Zero))
	keys, err = m.ListDirty(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, dec, keys[0].Period)
}
