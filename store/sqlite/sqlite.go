/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  Persists employee-month ledger records using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  employee_months:      One row per (employee, site, month, year)
  payouts:              Append-only payout rows per record
  additional_pays:      Append-only bonus/adjustment rows per record
  attendance_revisions: Audit trail of attendance sheet edits

APPEND-ONLY ENFORCEMENT:
  Payouts, additional pays and attendance revisions are never updated or
  deleted. Each append is a single INSERT, so concurrent appends against
  the same record all land without read-modify-write races.

DIRTY FLAG:
  Every mutating statement that changes a wage input also flips
  recalculation_needed in the SAME SQL transaction. A crash between the
  two can therefore never leave a stale balance looking clean.

MONEY:
  Monetary columns are stored as TEXT in decimal string form and parsed
  with shopspring/decimal on read. REAL columns would reintroduce the
  float drift the decimal type exists to avoid.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine, err := payroll.NewEngine(store, clock)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definition
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employee_months (
		employee_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		daily_rate TEXT NOT NULL,
		attendance_json TEXT NOT NULL,
		carry_forward_amount TEXT NOT NULL,
		carry_forward_remark TEXT NOT NULL,
		carry_forward_date TEXT NOT NULL,
		closing_balance TEXT NOT NULL,
		recalculation_needed BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, site_id, month, year)
	);

	CREATE INDEX IF NOT EXISTS idx_employee_months_site_period
		ON employee_months(site_id, year, month);

	-- Append-only: no UPDATE or DELETE on the three tables below. seq fixes
	-- the append order; created_at is only second-granular.
	CREATE TABLE IF NOT EXISTS payouts (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		remark TEXT,
		recorded_by TEXT,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payouts_record
		ON payouts(employee_id, site_id, year, month);

	CREATE TABLE IF NOT EXISTS additional_pays (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		remark TEXT,
		date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_additional_pays_record
		ON additional_pays(employee_id, site_id, year, month);

	CREATE TABLE IF NOT EXISTS attendance_revisions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		revision_key TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		month INTEGER NOT NULL,
		year INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL,
		editor TEXT,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_revisions_record
		ON attendance_revisions(employee_id, site_id, year, month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Create inserts a new employee-month record. The composite primary key
// enforces uniqueness, so a racing duplicate surfaces as DuplicateRecordError.
// Parent and child rows commit together; a failed create leaves no record.
func (s *Store) Create(ctx context.Context, em *payroll.EmployeeMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	attendanceJSON, _ := json.Marshal(em.Attendance)
	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		INSERT INTO employee_months
		(employee_id, site_id, month, year, daily_rate, attendance_json,
		 carry_forward_amount, carry_forward_remark, carry_forward_date,
		 closing_balance, recalculation_needed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		string(em.EmployeeID),
		string(em.SiteID),
		em.Period.Month,
		em.Period.Year,
		em.DailyRate.String(),
		string(attendanceJSON),
		em.CarryForward.Amount.String(),
		em.CarryForward.Remark,
		em.CarryForward.Date.Format(time.RFC3339),
		em.ClosingBalance.String(),
		em.RecalculationNeeded,
		now,
		now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &payroll.DuplicateRecordError{Key: em.Key()}
		}
		return fmt.Errorf("failed to create record: %w", err)
	}

	// Records created with seed data (imports carry additional pays over).
	for _, p := range em.Payouts {
		if err := s.insertPayout(ctx, tx, em, p); err != nil {
			return err
		}
	}
	for _, a := range em.AdditionalPays {
		if err := s.insertAdditionalPay(ctx, tx, em, a); err != nil {
			return err
		}
	}
	for _, rev := range em.AttendanceHistory {
		if err := s.insertRevision(ctx, tx, em, rev); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get loads a full record including payouts, additional pays and the
// attendance revision history.
func (s *Store) Get(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) (*payroll.EmployeeMonth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.get(ctx, employeeID, siteID, period)
}

func (s *Store) get(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) (*payroll.EmployeeMonth, error) {
	query := `
		SELECT employee_id, site_id, month, year, daily_rate, attendance_json,
		       carry_forward_amount, carry_forward_remark, carry_forward_date,
		       closing_balance, recalculation_needed, created_at, updated_at
		FROM employee_months
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
	`

	row := s.db.QueryRowContext(ctx, query,
		string(employeeID), string(siteID), period.Month, period.Year)

	em, err := scanEmployeeMonth(row)
	if err == sql.ErrNoRows {
		return nil, &payroll.NotFoundError{Key: payroll.RecordKey{
			EmployeeID: employeeID, SiteID: siteID, Period: period,
		}}
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, em); err != nil {
		return nil, err
	}
	return em, nil
}

// SetAttendance replaces the attendance sheet and appends a revision row,
// atomically with the dirty flag.
func (s *Store) SetAttendance(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, tokens []string, rev payroll.AttendanceRevision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	attendanceJSON, _ := json.Marshal(tokens)
	query := `
		UPDATE employee_months
		SET attendance_json = ?, recalculation_needed = TRUE, updated_at = ?
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
	`

	res, err := tx.ExecContext(ctx, query,
		string(attendanceJSON),
		rev.Timestamp.Format(time.RFC3339),
		string(employeeID), string(siteID), period.Month, period.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if err := requireRow(res, employeeID, siteID, period); err != nil {
		return err
	}

	snapshotJSON, _ := json.Marshal(rev.Snapshot)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendance_revisions
		(revision_key, employee_id, site_id, month, year, snapshot_json, editor, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rev.RevisionKey, string(employeeID), string(siteID), period.Month, period.Year,
		string(snapshotJSON), rev.Editor, rev.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record revision: %w", err)
	}

	return tx.Commit()
}

// AppendPayout adds a payout row and marks the record dirty.
func (s *Store) AppendPayout(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, p payroll.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.markDirtyTx(ctx, tx, employeeID, siteID, period, p.Date); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payouts
		(id, employee_id, site_id, month, year, amount, remark, recorded_by, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, string(employeeID), string(siteID), period.Month, period.Year,
		p.Amount.String(), p.Remark, p.RecordedBy,
		p.Date.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append payout: %w", err)
	}

	return tx.Commit()
}

// AppendAdditionalPay adds a bonus/adjustment row and marks the record dirty.
func (s *Store) AppendAdditionalPay(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, p payroll.AdditionalPay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.markDirtyTx(ctx, tx, employeeID, siteID, period, p.Date); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO additional_pays
		(id, employee_id, site_id, month, year, amount, remark, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, string(employeeID), string(siteID), period.Month, period.Year,
		p.Amount.String(), p.Remark,
		p.Date.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append additional pay: %w", err)
	}

	return tx.Commit()
}

// SetCarryForward replaces the opening balance, optionally marking the
// record dirty in the same statement (cascade propagation path).
func (s *Store) SetCarryForward(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, cf payroll.CarryForward, markDirty bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE employee_months
		SET carry_forward_amount = ?, carry_forward_remark = ?, carry_forward_date = ?,
		    recalculation_needed = (recalculation_needed OR ?), updated_at = ?
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		cf.Amount.String(), cf.Remark, cf.Date.Format(time.RFC3339),
		markDirty, cf.Date.Format(time.RFC3339),
		string(employeeID), string(siteID), period.Month, period.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to set carry forward: %w", err)
	}
	return requireRow(res, employeeID, siteID, period)
}

// SetComputed stores a recomputed closing balance and clears the dirty flag.
func (s *Store) SetComputed(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, closing decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE employee_months
		SET closing_balance = ?, recalculation_needed = FALSE
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		closing.String(),
		string(employeeID), string(siteID), period.Month, period.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to set computed balance: %w", err)
	}
	return requireRow(res, employeeID, siteID, period)
}

// MarkDirty flags a record for recalculation without changing its inputs.
func (s *Store) MarkDirty(ctx context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE employee_months
		SET recalculation_needed = TRUE
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		string(employeeID), string(siteID), period.Month, period.Year)
	if err != nil {
		return fmt.Errorf("failed to mark dirty: %w", err)
	}
	return requireRow(res, employeeID, siteID, period)
}

// ListBySite returns all records for a site in a given period.
func (s *Store) ListBySite(ctx context.Context, siteID payroll.SiteID, period payroll.MonthKey) ([]*payroll.EmployeeMonth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT employee_id, site_id, month, year, daily_rate, attendance_json,
		       carry_forward_amount, carry_forward_remark, carry_forward_date,
		       closing_balance, recalculation_needed, created_at, updated_at
		FROM employee_months
		WHERE site_id = ? AND month = ? AND year = ?
		ORDER BY employee_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(siteID), period.Month, period.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var result []*payroll.EmployeeMonth
	for rows.Next() {
		em, err := scanEmployeeMonth(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, em)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, em := range result {
		if err := s.loadChildren(ctx, em); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ListDirty returns the keys of all records flagged for recalculation.
func (s *Store) ListDirty(ctx context.Context) ([]payroll.RecordKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, site_id, month, year
		FROM employee_months
		WHERE recalculation_needed = TRUE
		ORDER BY employee_id ASC, site_id ASC, year ASC, month ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dirty records: %w", err)
	}
	defer rows.Close()

	var keys []payroll.RecordKey
	for rows.Next() {
		var employeeID, siteID string
		var key payroll.RecordKey
		if err := rows.Scan(&employeeID, &siteID, &key.Period.Month, &key.Period.Year); err != nil {
			return nil, err
		}
		key.EmployeeID = payroll.EmployeeID(employeeID)
		key.SiteID = payroll.SiteID(siteID)
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// =============================================================================
// ROW MAPPING
// =============================================================================

type scannable interface {
	Scan(dest ...any) error
}

func scanEmployeeMonth(row scannable) (*payroll.EmployeeMonth, error) {
	var (
		em             payroll.EmployeeMonth
		employeeID     string
		siteID         string
		dailyRate      string
		attendanceJSON string
		cfAmount       string
		cfDate         string
		closing        string
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(
		&employeeID, &siteID, &em.Period.Month, &em.Period.Year,
		&dailyRate, &attendanceJSON,
		&cfAmount, &em.CarryForward.Remark, &cfDate,
		&closing, &em.RecalculationNeeded, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	em.EmployeeID = payroll.EmployeeID(employeeID)
	em.SiteID = payroll.SiteID(siteID)
	em.DailyRate, err = decimal.NewFromString(dailyRate)
	if err != nil {
		return nil, fmt.Errorf("corrupt daily_rate %q: %w", dailyRate, err)
	}
	em.CarryForward.Amount, err = decimal.NewFromString(cfAmount)
	if err != nil {
		return nil, fmt.Errorf("corrupt carry_forward_amount %q: %w", cfAmount, err)
	}
	em.ClosingBalance, err = decimal.NewFromString(closing)
	if err != nil {
		return nil, fmt.Errorf("corrupt closing_balance %q: %w", closing, err)
	}
	if err := json.Unmarshal([]byte(attendanceJSON), &em.Attendance); err != nil {
		return nil, fmt.Errorf("corrupt attendance_json: %w", err)
	}
	em.CarryForward.Date, _ = time.Parse(time.RFC3339, cfDate)
	em.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	em.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &em, nil
}

func (s *Store) loadChildren(ctx context.Context, em *payroll.EmployeeMonth) error {
	args := []any{string(em.EmployeeID), string(em.SiteID), em.Period.Month, em.Period.Year}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, remark, recorded_by, date FROM payouts
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p payroll.Payout
		var amount, date string
		var remark, recordedBy sql.NullString
		if err := rows.Scan(&p.ID, &amount, &remark, &recordedBy, &date); err != nil {
			rows.Close()
			return err
		}
		p.Amount, _ = decimal.NewFromString(amount)
		p.Remark = remark.String
		p.RecordedBy = recordedBy.String
		p.Date, _ = time.Parse(time.RFC3339, date)
		em.Payouts = append(em.Payouts, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, amount, remark, date FROM additional_pays
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var p payroll.AdditionalPay
		var amount, date string
		var remark sql.NullString
		if err := rows.Scan(&p.ID, &amount, &remark, &date); err != nil {
			rows.Close()
			return err
		}
		p.Amount, _ = decimal.NewFromString(amount)
		p.Remark = remark.String
		p.Date, _ = time.Parse(time.RFC3339, date)
		em.AdditionalPays = append(em.AdditionalPays, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT revision_key, snapshot_json, editor, timestamp FROM attendance_revisions
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
		ORDER BY seq ASC
	`, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var rev payroll.AttendanceRevision
		var snapshotJSON, timestamp string
		var editor sql.NullString
		if err := rows.Scan(&rev.RevisionKey, &snapshotJSON, &editor, &timestamp); err != nil {
			rows.Close()
			return err
		}
		if err := json.Unmarshal([]byte(snapshotJSON), &rev.Snapshot); err != nil {
			rows.Close()
			return fmt.Errorf("corrupt snapshot_json: %w", err)
		}
		rev.Editor = editor.String
		rev.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		em.AttendanceHistory = append(em.AttendanceHistory, rev)
	}
	rows.Close()
	return rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertPayout(ctx context.Context, db execer, em *payroll.EmployeeMonth, p payroll.Payout) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO payouts
		(id, employee_id, site_id, month, year, amount, remark, recorded_by, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, string(em.EmployeeID), string(em.SiteID), em.Period.Month, em.Period.Year,
		p.Amount.String(), p.Remark, p.RecordedBy,
		p.Date.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) insertAdditionalPay(ctx context.Context, db execer, em *payroll.EmployeeMonth, p payroll.AdditionalPay) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO additional_pays
		(id, employee_id, site_id, month, year, amount, remark, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, string(em.EmployeeID), string(em.SiteID), em.Period.Month, em.Period.Year,
		p.Amount.String(), p.Remark,
		p.Date.Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) insertRevision(ctx context.Context, db execer, em *payroll.EmployeeMonth, rev payroll.AttendanceRevision) error {
	snapshotJSON, _ := json.Marshal(rev.Snapshot)
	_, err := db.ExecContext(ctx, `
		INSERT INTO attendance_revisions
		(revision_key, employee_id, site_id, month, year, snapshot_json, editor, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rev.RevisionKey, string(em.EmployeeID), string(em.SiteID), em.Period.Month, em.Period.Year,
		string(snapshotJSON), rev.Editor, rev.Timestamp.Format(time.RFC3339),
	)
	return err
}

func (s *Store) markDirtyTx(ctx context.Context, tx *sql.Tx, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, at time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE employee_months
		SET recalculation_needed = TRUE, updated_at = ?
		WHERE employee_id = ? AND site_id = ? AND month = ? AND year = ?
	`,
		at.Format(time.RFC3339),
		string(employeeID), string(siteID), period.Month, period.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to mark dirty: %w", err)
	}
	return requireRow(res, employeeID, siteID, period)
}

func requireRow(res sql.Result, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &payroll.NotFoundError{Key: payroll.RecordKey{
			EmployeeID: employeeID, SiteID: siteID, Period: period,
		}}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
