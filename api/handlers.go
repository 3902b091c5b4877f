/*
handlers.go - HTTP API handlers for the payroll reconciliation engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Months:
    POST /api/sites/{siteID}/employees/{employeeID}/months
    GET  /api/sites/{siteID}/employees/{employeeID}/months/{year}/{month}
    POST .../months/{year}/{month}/attendance
    POST .../months/{year}/{month}/payouts
    POST .../months/{year}/{month}/additional-pays

  Reconciliation:
    POST /api/sites/{siteID}/employees/{employeeID}/recalculate
    GET  .../months/{year}/{month}/carry-forward/verify

  Sites:
    GET  /api/sites/{siteID}/months/{year}/{month}   Roster for a period
    POST /api/sites/{siteID}/imports                 Cross-month import

  Period:
    GET  /api/period/current                         Business-timezone month

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Duplicate record
  - 500: Internal errors
  The mapping lives in writeEngineError and keys off the domain error
  types, so handlers never inspect error strings.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/engine.go: Domain logic these delegate to
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *payroll.Engine
}

// NewHandler creates a new handler backed by the given engine.
func NewHandler(engine *payroll.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// MONTH HANDLERS
// =============================================================================

// CreateMonth opens a new employee-month record by direct entry.
// POST /api/sites/{siteID}/employees/{employeeID}/months
func (h *Handler) CreateMonth(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)

	var req CreateMonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rate, err := decimal.NewFromString(req.DailyRate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid daily_rate (use a decimal string)", err)
		return
	}

	em, err := h.Engine.CreateEmployeeMonth(r.Context(), employeeID, siteID,
		payroll.MonthKey{Month: req.Month, Year: req.Year}, rate)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeMonthDTO(em, nil))
}

// GetMonth returns a full record with its computed totals and audit trail.
// GET /api/sites/{siteID}/employees/{employeeID}/months/{year}/{month}
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period in URL", err)
		return
	}

	em, err := h.Engine.GetEmployeeMonth(r.Context(), employeeID, siteID, period)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var totalsPtr *payroll.Totals
	if totals, err := h.Engine.ComputeTotals(em); err == nil {
		totalsPtr = &totals
	}

	writeJSON(w, http.StatusOK, toEmployeeMonthDTO(em, totalsPtr))
}

// RecordAttendance sets one day's attendance code.
// POST /api/sites/{siteID}/employees/{employeeID}/months/{year}/{month}/attendance
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period in URL", err)
		return
	}

	var req AttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Engine.RecordAttendance(r.Context(), employeeID, siteID, period,
		req.DayIndex, req.Token, req.Editor); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddPayout appends a payout to the month.
// POST /api/sites/{siteID}/employees/{employeeID}/months/{year}/{month}/payouts
func (h *Handler) AddPayout(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period in URL", err)
		return
	}

	var req PayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a decimal string)", err)
		return
	}

	if err := h.Engine.AddPayout(r.Context(), employeeID, siteID, period,
		amount, req.Remark, req.RecordedBy); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddAdditionalPay appends a bonus/adjustment to the month.
// POST /api/sites/{siteID}/employees/{employeeID}/months/{year}/{month}/additional-pays
func (h *Handler) AddAdditionalPay(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period in URL", err)
		return
	}

	var req AdditionalPayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount (use a decimal string)", err)
		return
	}

	if err := h.Engine.AddAdditionalPay(r.Context(), employeeID, siteID, period,
		amount, req.Remark); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// Recalculate walks the recalculation chain from the requested month.
// POST /api/sites/{siteID}/employees/{employeeID}/recalculate
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)

	var req RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Engine.Recalculate(r.Context(), employeeID, siteID,
		payroll.MonthKey{Month: req.FromMonth, Year: req.FromYear})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := RecalculateResponse{Updated: make([]PeriodDTO, len(updated))}
	for i, p := range updated {
		resp.Updated[i] = PeriodDTO{Month: p.Month, Year: p.Year}
	}
	writeJSON(w, http.StatusOK, resp)
}

// VerifyCarryForward reports whether a month's opening balance matches the
// preceding month's closing balance.
// GET /api/sites/{siteID}/employees/{employeeID}/months/{year}/{month}/carry-forward/verify
func (h *Handler) VerifyCarryForward(w http.ResponseWriter, r *http.Request) {
	employeeID, siteID := pathIdentity(r)
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period in URL", err)
		return
	}

	consistent, err := h.Engine.VerifyCarryForward(r.Context(), employeeID, siteID, period)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"consistent": consistent})
}

// =============================================================================
// SITE HANDLERS
// =============================================================================

// ListSiteMonth returns the full roster for a site and period.
// GET /api/sites/{siteID}/months/{year}/{month}
func (h *Handler) ListSiteMonth(w http.ResponseWriter, r *http.Request) {
	siteID := payroll.SiteID(chi.URLParam(r, "siteID"))
	period, err := pathPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period in URL", err)
		return
	}

	records, err := h.Engine.ListSiteMonth(r.Context(), siteID, period)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dtos := make([]EmployeeMonthDTO, len(records))
	for i, em := range records {
		dtos[i] = toEmployeeMonthDTO(em, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Import carries employee definitions from one month into another.
// POST /api/sites/{siteID}/imports
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	siteID := payroll.SiteID(chi.URLParam(r, "siteID"))

	var req ImportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	domainReq := payroll.ImportRequest{
		SiteID:                 siteID,
		Source:                 payroll.MonthKey{Month: req.SourceMonth, Year: req.SourceYear},
		Target:                 payroll.MonthKey{Month: req.TargetMonth, Year: req.TargetYear},
		PreserveCarryForward:   req.PreserveCarryForward,
		PreserveAdditionalPays: req.PreserveAdditionalPays,
	}
	for _, id := range req.EmployeeIDs {
		domainReq.EmployeeIDs = append(domainReq.EmployeeIDs, payroll.EmployeeID(id))
	}

	result, err := h.Engine.ImportEmployees(r.Context(), domainReq)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	dto := ImportResultDTO{
		Imported: make([]string, len(result.Imported)),
		Skipped:  []ImportSkipDTO{},
		Errors:   []ImportErrorDTO{},
	}
	for i, id := range result.Imported {
		dto.Imported[i] = string(id)
	}
	for _, s := range result.Skipped {
		dto.Skipped = append(dto.Skipped, ImportSkipDTO{
			EmployeeID: string(s.EmployeeID), Reason: s.Reason,
		})
	}
	for _, e := range result.Errors {
		dto.Errors = append(dto.Errors, ImportErrorDTO{
			EmployeeID: string(e.EmployeeID), Error: e.Err,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// CurrentPeriod returns the current month in the business timezone.
// GET /api/period/current
func (h *Handler) CurrentPeriod(w http.ResponseWriter, r *http.Request) {
	clock := h.Engine.Clock()
	now := clock.Now()
	period := clock.CurrentPeriod()

	writeJSON(w, http.StatusOK, CurrentPeriodDTO{
		Month:    period.Month,
		Year:     period.Year,
		Timezone: now.Location().String(),
		Now:      formatTime(now),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathIdentity(r *http.Request) (payroll.EmployeeID, payroll.SiteID) {
	return payroll.EmployeeID(chi.URLParam(r, "employeeID")),
		payroll.SiteID(chi.URLParam(r, "siteID"))
}

func pathPeriod(r *http.Request) (payroll.MonthKey, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return payroll.MonthKey{}, err
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return payroll.MonthKey{}, err
	}
	return payroll.MonthKey{Month: month, Year: year}, nil
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case payroll.IsDuplicate(err):
		writeError(w, http.StatusConflict, "Record already exists", err)
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
