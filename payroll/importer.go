/*
importer.go - Cross-month import engine

PURPOSE:
  Seeds a new payroll period from an existing one: copies employee
  definitions (daily rate, optionally allowances and the closing balance)
  from a source month into a target month at the same site. This is how a
  site supervisor starts a new month without re-entering every labourer.

ELIGIBILITY:
  An employee is importable only if a record exists in the source period
  and none exists yet in the target period. Explicitly requested ids that
  are ineligible are reported in Skipped, never silently dropped.

PARTIAL-FAILURE POLICY:
  The batch is not atomic: one employee's failure (typically a concurrent
  request creating the target record first) goes into Errors and the rest
  proceed. Each single creation IS atomic - the store's create-if-absent
  and the uniqueness invariant guard against duplicate records under
  concurrent imports.

SEE ALSO:
  - store.go: Create-if-absent contract
  - carryforward.go: Opening-balance construction
*/
package payroll

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// ImportRequest describes one cross-month import.
type ImportRequest struct {
	SiteID SiteID
	Source MonthKey
	Target MonthKey

	// EmployeeIDs limits the import to the listed employees. Empty means
	// every eligible employee at the site.
	EmployeeIDs []EmployeeID

	// PreserveCarryForward seeds the target's opening balance from the
	// source month's closing balance instead of zero.
	PreserveCarryForward bool

	// PreserveAdditionalPays copies the source month's allowances.
	PreserveAdditionalPays bool
}

// ImportSkip reports an ineligible employee and why.
type ImportSkip struct {
	EmployeeID EmployeeID
	Reason     string
}

// ImportError reports a per-employee failure that did not abort the batch.
type ImportError struct {
	EmployeeID EmployeeID
	Err        string
}

// ImportResult is the per-item outcome of an import batch.
type ImportResult struct {
	Imported []EmployeeID
	Skipped  []ImportSkip
	Errors   []ImportError
}

// ImportEmployees copies employee definitions from the source period into
// the target period per the request. Period validation errors fail the whole
// call before any record is created; everything after that is per-employee.
func (e *Engine) ImportEmployees(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if err := req.Source.Validate(); err != nil {
		return nil, err
	}
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}
	if req.Target.Before(req.Source) {
		return nil, &InvalidPeriodError{
			Month:  req.Target.Month,
			Year:   req.Target.Year,
			Reason: "target period precedes source period " + req.Source.String(),
		}
	}

	sourceRecords, err := e.store.ListBySite(ctx, req.SiteID, req.Source)
	if err != nil {
		return nil, err
	}
	sourceByEmployee := make(map[EmployeeID]*EmployeeMonth, len(sourceRecords))
	for _, em := range sourceRecords {
		sourceByEmployee[em.EmployeeID] = em
	}

	candidates := req.EmployeeIDs
	if len(candidates) == 0 {
		candidates = make([]EmployeeID, 0, len(sourceRecords))
		for id := range sourceByEmployee {
			candidates = append(candidates, id)
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	}

	result := &ImportResult{}
	for _, id := range candidates {
		source, ok := sourceByEmployee[id]
		if !ok {
			result.Skipped = append(result.Skipped, ImportSkip{
				EmployeeID: id,
				Reason:     "no record in source period " + req.Source.String(),
			})
			continue
		}

		if _, err := e.store.Get(ctx, id, req.SiteID, req.Target); err == nil {
			result.Skipped = append(result.Skipped, ImportSkip{
				EmployeeID: id,
				Reason:     "record already exists in target period " + req.Target.String(),
			})
			continue
		} else if !IsNotFound(err) {
			result.Errors = append(result.Errors, ImportError{EmployeeID: id, Err: err.Error()})
			continue
		}

		target := e.buildImportedMonth(source, req)
		if err := e.store.Create(ctx, target); err != nil {
			// A lost creation race lands here as ErrDuplicateRecord.
			result.Errors = append(result.Errors, ImportError{EmployeeID: id, Err: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, id)
	}

	return result, nil
}

// buildImportedMonth assembles the target record: rate copied, fresh
// all-absent sheet sized to the target month, no payouts, no history.
func (e *Engine) buildImportedMonth(source *EmployeeMonth, req ImportRequest) *EmployeeMonth {
	now := e.clock.Now()

	cf := ZeroCarryForward(now)
	if req.PreserveCarryForward {
		cf = NewCarryForward(source.ClosingBalance, now)
	}

	var additionalPays []AdditionalPay
	if req.PreserveAdditionalPays {
		// Copies are new rows in the target month and carry their own ids.
		additionalPays = make([]AdditionalPay, len(source.AdditionalPays))
		for i, pay := range source.AdditionalPays {
			pay.ID = uuid.NewString()
			additionalPays[i] = pay
		}
	}

	return &EmployeeMonth{
		EmployeeID:          source.EmployeeID,
		SiteID:              req.SiteID,
		Period:              req.Target,
		DailyRate:           source.DailyRate,
		Attendance:          NewAbsentSheet(req.Target.Days()),
		AdditionalPays:      additionalPays,
		CarryForward:        cf,
		RecalculationNeeded: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
