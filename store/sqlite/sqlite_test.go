package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"

	"github.com/shopspring/decimal"
)

// A file-backed database in a temp dir: with the database/sql pool every
// connection would get its own private :memory: database.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "payroll.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRecord() *payroll.EmployeeMonth {
	now := time.Date(2024, time.December, 1, 10, 0, 0, 0, time.UTC)
	return &payroll.EmployeeMonth{
		EmployeeID:          "emp-1",
		SiteID:              "site-1",
		Period:              payroll.MonthKey{Month: 11, Year: 2024},
		DailyRate:           money("600"),
		Attendance:          payroll.NewAbsentSheet(30),
		CarryForward:        payroll.ZeroCarryForward(now),
		ClosingBalance:      decimal.Zero,
		RecalculationNeeded: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func TestCreateAndGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)

	assert.Equal(t, em.EmployeeID, got.EmployeeID)
	assert.Equal(t, em.SiteID, got.SiteID)
	assert.Equal(t, em.Period, got.Period)
	assert.True(t, got.DailyRate.Equal(money("600")))
	assert.Equal(t, em.Attendance, got.Attendance)
	assert.True(t, got.CarryForward.Amount.IsZero())
	assert.True(t, got.RecalculationNeeded)
}

func TestCreate_Duplicate_Rejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testRecord()))

	err := s.Create(ctx, testRecord())
	assert.ErrorIs(t, err, payroll.ErrDuplicateRecord)
}

func TestGet_Missing_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "nobody", "site-1", payroll.MonthKey{Month: 11, Year: 2024})
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestSetAttendance_PersistsSheetAndRevision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))

	tokens := append([]string(nil), em.Attendance...)
	tokens[4] = "P4"
	rev := payroll.AttendanceRevision{
		RevisionKey: "rev-1",
		Snapshot:    em.Attendance,
		Editor:      "supervisor",
		Timestamp:   time.Date(2024, time.December, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SetAttendance(ctx, "emp-1", "site-1", em.Period, tokens, rev))

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	assert.Equal(t, "P4", got.Attendance[4])
	require.Len(t, got.AttendanceHistory, 1)
	assert.Equal(t, "rev-1", got.AttendanceHistory[0].RevisionKey)
	assert.Equal(t, "A", got.AttendanceHistory[0].Snapshot[4])
	assert.Equal(t, "supervisor", got.AttendanceHistory[0].Editor)
	assert.True(t, got.RecalculationNeeded)
}

func TestAppendPayout_SetsDirtyWithTheAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))
	require.NoError(t, s.SetComputed(ctx, "emp-1", "site-1", em.Period, decimal.Zero))

	p := payroll.Payout{
		ID:         "po-1",
		Amount:     money("2500.50"),
		Remark:     "advance",
		RecordedBy: "clerk",
		Date:       time.Date(2024, time.November, 20, 17, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.AppendPayout(ctx, "emp-1", "site-1", em.Period, p))

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	require.Len(t, got.Payouts, 1)
	assert.True(t, got.Payouts[0].Amount.Equal(money("2500.50")), "decimal stored exactly")
	assert.Equal(t, "advance", got.Payouts[0].Remark)
	assert.True(t, got.RecalculationNeeded, "append and dirty flag land together")
}

func TestAppendPayout_MissingRecord_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.AppendPayout(context.Background(), "nobody", "site-1",
		payroll.MonthKey{Month: 11, Year: 2024}, payroll.Payout{ID: "po-1", Amount: money("1")})
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestAppendAdditionalPay_Persists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))

	a := payroll.AdditionalPay{ID: "ap-1", Amount: money("500"), Remark: "bonus", Date: time.Now().UTC()}
	require.NoError(t, s.AppendAdditionalPay(ctx, "emp-1", "site-1", em.Period, a))

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	require.Len(t, got.AdditionalPays, 1)
	assert.True(t, got.AdditionalPays[0].Amount.Equal(money("500")))
}

func TestSetCarryForward_MarkDirtyControl(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))
	require.NoError(t, s.SetComputed(ctx, "emp-1", "site-1", em.Period, decimal.Zero))

	cf := payroll.NewCarryForward(money("1200"), time.Now().UTC())
	require.NoError(t, s.SetCarryForward(ctx, "emp-1", "site-1", em.Period, cf, false))

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	assert.True(t, got.CarryForward.Amount.Equal(money("1200")))
	assert.False(t, got.RecalculationNeeded, "markDirty=false leaves the flag alone")

	require.NoError(t, s.SetCarryForward(ctx, "emp-1", "site-1", em.Period, cf, true))
	got, err = s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	assert.True(t, got.RecalculationNeeded)
}

func TestSetComputed_ClearsDirty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))

	require.NoError(t, s.SetComputed(ctx, "emp-1", "site-1", em.Period, money("13000")))

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	assert.True(t, got.ClosingBalance.Equal(money("13000")))
	assert.False(t, got.RecalculationNeeded)
}

func TestListBySite_FiltersPeriodAndSite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	nov := payroll.MonthKey{Month: 11, Year: 2024}
	dec := payroll.MonthKey{Month: 12, Year: 2024}

	for _, rec := range []*payroll.EmployeeMonth{
		{EmployeeID: "emp-1", SiteID: "site-1", Period: nov},
		{EmployeeID: "emp-2", SiteID: "site-1", Period: nov},
		{EmployeeID: "emp-1", SiteID: "site-1", Period: dec},
		{EmployeeID: "emp-9", SiteID: "site-2", Period: nov},
	} {
		rec.DailyRate = money("600")
		rec.Attendance = payroll.NewAbsentSheet(rec.Period.Days())
		rec.ClosingBalance = decimal.Zero
		rec.CarryForward = payroll.ZeroCarryForward(time.Now().UTC())
		require.NoError(t, s.Create(ctx, rec))
	}

	records, err := s.ListBySite(ctx, "site-1", nov)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, payroll.EmployeeID("emp-1"), records[0].EmployeeID)
	assert.Equal(t, payroll.EmployeeID("emp-2"), records[1].EmployeeID)
}

func TestListDirty_AscendingPerChain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dec := payroll.MonthKey{Month: 12, Year: 2024}
	nov := payroll.MonthKey{Month: 11, Year: 2024}

	// Insert December before November; ListDirty must still order by period.
	for _, period := range []payroll.MonthKey{dec, nov} {
		rec := testRecord()
		rec.Period = period
		rec.Attendance = payroll.NewAbsentSheet(period.Days())
		require.NoError(t, s.Create(ctx, rec))
	}

	keys, err := s.ListDirty(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, nov, keys[0].Period)
	assert.Equal(t, dec, keys[1].Period)

	require.NoError(t, s.SetComputed(ctx, "emp-1", "site-1", nov, decimal.Zero))
	keys, err = s.ListDirty(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, dec, keys[0].Period)
}

func TestCreate_ChildInsertFailure_LeavesNoRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Two seed allowances with the same id cannot both insert; the parent
	// row must roll back with them.
	em := testRecord()
	em.AdditionalPays = []payroll.AdditionalPay{
		{ID: "ap-1", Amount: money("500"), Date: time.Now().UTC()},
		{ID: "ap-1", Amount: money("600"), Date: time.Now().UTC()},
	}
	require.Error(t, s.Create(ctx, em))

	_, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	assert.ErrorIs(t, err, payroll.ErrNotFound, "a failed create leaves no partial record")
}

func TestPayouts_ReturnInAppendOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	em := testRecord()
	require.NoError(t, s.Create(ctx, em))

	// Ids chosen so lexicographic order disagrees with append order. The
	// appends land within the same second, where created_at cannot break
	// the tie.
	date := time.Date(2024, time.November, 20, 17, 0, 0, 0, time.UTC)
	for _, id := range []string{"po-z", "po-m", "po-a"} {
		p := payroll.Payout{ID: id, Amount: money("100"), Date: date}
		require.NoError(t, s.AppendPayout(ctx, "emp-1", "site-1", em.Period, p))
	}

	got, err := s.Get(ctx, "emp-1", "site-1", em.Period)
	require.NoError(t, err)
	require.Len(t, got.Payouts, 3)
	assert.Equal(t, "po-z", got.Payouts[0].ID)
	assert.Equal(t, "po-m", got.Payouts[1].ID)
	assert.Equal(t, "po-a", got.Payouts[2].ID)
}

func TestEngineOnSQLite_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC)
	clock, err := payroll.NewClockAt("Asia/Kolkata", at)
	require.NoError(t, err)
	engine := payroll.NewEngine(s, clock)

	nov := payroll.MonthKey{Month: 11, Year: 2024}
	dec := payroll.MonthKey{Month: 12, Year: 2024}

	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", nov, money("600"))
	require.NoError(t, err)
	for day := 0; day < nov.Days(); day++ {
		require.NoError(t, engine.RecordAttendance(ctx, "emp-1", "site-1", nov, day, "P", "clerk"))
	}
	require.NoError(t, engine.AddPayout(ctx, "emp-1", "site-1", nov, money("5000"), "advance", "clerk"))

	result, err := engine.ImportEmployees(ctx, payroll.ImportRequest{
		SiteID: "site-1", Source: nov, Target: dec, PreserveCarryForward: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Imported, 1)

	updated, err := engine.Recalculate(ctx, "emp-1", "site-1", nov)
	require.NoError(t, err)
	assert.Equal(t, []payroll.MonthKey{nov, dec}, updated)

	em, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", dec)
	require.NoError(t, err)
	// 30*600 - 5000 = 13000 carried into December.
	assert.True(t, em.CarryForward.Amount.Equal(money("13000")))
	assert.False(t, em.RecalculationNeeded)
}

func TestEngineOnSQLite_ImportPreservesAdditionalPays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC)
	clock, err := payroll.NewClockAt("Asia/Kolkata", at)
	require.NoError(t, err)
	engine := payroll.NewEngine(s, clock)

	nov := payroll.MonthKey{Month: 11, Year: 2024}
	dec := payroll.MonthKey{Month: 12, Year: 2024}

	_, err = engine.CreateEmployeeMonth(ctx, "emp-1", "site-1", nov, money("600"))
	require.NoError(t, err)
	require.NoError(t, engine.AddAdditionalPay(ctx, "emp-1", "site-1", nov, money("750"), "site allowance"))

	// emp-2 already entered December directly and must be reported skipped
	// without disturbing emp-1's import.
	_, err = engine.CreateEmployeeMonth(ctx, "emp-2", "site-1", nov, money("650"))
	require.NoError(t, err)
	_, err = engine.CreateEmployeeMonth(ctx, "emp-2", "site-1", dec, money("650"))
	require.NoError(t, err)

	req := payroll.ImportRequest{
		SiteID: "site-1", Source: nov, Target: dec,
		PreserveCarryForward: true, PreserveAdditionalPays: true,
	}
	result, err := engine.ImportEmployees(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []payroll.EmployeeID{"emp-1"}, result.Imported)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, payroll.EmployeeID("emp-2"), result.Skipped[0].EmployeeID)
	assert.Empty(t, result.Errors)

	src, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", nov)
	require.NoError(t, err)
	got, err := engine.GetEmployeeMonth(ctx, "emp-1", "site-1", dec)
	require.NoError(t, err)
	require.Len(t, got.AdditionalPays, 1)
	assert.True(t, got.AdditionalPays[0].Amount.Equal(money("750")))
	assert.Equal(t, "site allowance", got.AdditionalPays[0].Remark)
	assert.NotEqual(t, src.AdditionalPays[0].ID, got.AdditionalPays[0].ID,
		"the copy is a new row with its own id")

	// Re-running the import must report both employees skipped and leave
	// the target record untouched, with no duplicate allowance rows.
	second, err := engine.ImportEmployees(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, second.Imported)
	assert.Len(t, second.Skipped, 2)
	assert.Empty(t, second.Errors)

	got, err = engine.GetEmployeeMonth(ctx, "emp-1", "site-1", dec)
	require.NoError(t, err)
	assert.Len(t, got.AdditionalPays, 1)
}
