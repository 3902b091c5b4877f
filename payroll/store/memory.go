// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[payroll.RecordKey]*payroll.EmployeeMonth
}

func NewMemory() *Memory {
	return &Memory{records: make(map[payroll.RecordKey]*payroll.EmployeeMonth)}
}

// Create persists a new record. The key acts as the uniqueness guard: a
// second creation attempt fails and leaves the original untouched.
func (m *Memory) Create(_ context.Context, em *payroll.EmployeeMonth) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := em.Key()
	if _, exists := m.records[key]; exists {
		return &payroll.DuplicateRecordError{Key: key}
	}
	m.records[key] = em.Clone()
	return nil
}

func (m *Memory) Get(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) (*payroll.EmployeeMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	em, ok := m.records[payroll.RecordKey{EmployeeID: employeeID, SiteID: siteID, Period: period}]
	if !ok {
		return nil, &payroll.NotFoundError{Key: payroll.RecordKey{EmployeeID: employeeID, SiteID: siteID, Period: period}}
	}
	return em.Clone(), nil
}

func (m *Memory) SetAttendance(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, tokens []string, rev payroll.AttendanceRevision) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	em, err := m.lookupLocked(employeeID, siteID, period)
	if err != nil {
		return err
	}
	em.Attendance = append([]string(nil), tokens...)
	rev.Snapshot = append([]string(nil), rev.Snapshot...)
	em.AttendanceHistory = append(em.AttendanceHistory, rev)
	em.RecalculationNeeded = true
	em.UpdatedAt = rev.Timestamp
	return nil
}

func (m *Memory) AppendPayout(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, p payroll.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	em, err := m.lookupLocked(employeeID, siteID, period)
	if err != nil {
		return err
	}
	em.Payouts = append(em.Payouts, p)
	em.RecalculationNeeded = true
	em.UpdatedAt = p.Date
	return nil
}

func (m *Memory) AppendAdditionalPay(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, p payroll.AdditionalPay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	em, err := m.lookupLocked(employeeID, siteID, period)
	if err != nil {
		return err
	}
	em.AdditionalPays = append(em.AdditionalPays, p)
	em.RecalculationNeeded = true
	em.UpdatedAt = p.Date
	return nil
}

func (m *Memory) SetCarryForward(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, cf payroll.CarryForward, markDirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	em, err := m.lookupLocked(employeeID, siteID, period)
	if err != nil {
		return err
	}
	em.CarryForward = cf
	if markDirty {
		em.RecalculationNeeded = true
	}
	em.UpdatedAt = cf.Date
	return nil
}

func (m *Memory) SetComputed(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey, closing decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	em, err := m.lookupLocked(employeeID, siteID, period)
	if err != nil {
		return err
	}
	em.ClosingBalance = closing
	em.RecalculationNeeded = false
	return nil
}

func (m *Memory) MarkDirty(_ context.Context, employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	em, err := m.lookupLocked(employeeID, siteID, period)
	if err != nil {
		return err
	}
	em.RecalculationNeeded = true
	return nil
}

func (m *Memory) ListBySite(_ context.Context, siteID payroll.SiteID, period payroll.MonthKey) ([]*payroll.EmployeeMonth, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*payroll.EmployeeMonth
	for key, em := range m.records {
		if key.SiteID == siteID && key.Period.Equal(period) {
			result = append(result, em.Clone())
		}
	}
	return result, nil
}

func (m *Memory) ListDirty(_ context.Context) ([]payroll.RecordKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []payroll.RecordKey
	for key, em := range m.records {
		if em.RecalculationNeeded {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EmployeeID != keys[j].EmployeeID {
			return keys[i].EmployeeID < keys[j].EmployeeID
		}
		if keys[i].SiteID != keys[j].SiteID {
			return keys[i].SiteID < keys[j].SiteID
		}
		return keys[i].Period.Before(keys[j].Period)
	})
	return keys, nil
}

func (m *Memory) lookupLocked(employeeID payroll.EmployeeID, siteID payroll.SiteID, period payroll.MonthKey) (*payroll.EmployeeMonth, error) {
	key := payroll.RecordKey{EmployeeID: employeeID, SiteID: siteID, Period: period}
	em, ok := m.records[key]
	if !ok {
		return nil, &payroll.NotFoundError{Key: key}
	}
	return em, nil
}
