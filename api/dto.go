/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Monetary values cross the wire as decimal strings ("600", "5500.50"),
  never as JSON numbers, so clients round-trip amounts exactly.

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeMonthDTO represents a full ledger record in API responses.
type EmployeeMonthDTO struct {
	EmployeeID          string                  `json:"employee_id"`
	SiteID              string                  `json:"site_id"`
	Month               int                     `json:"month"`
	Year                int                     `json:"year"`
	DailyRate           string                  `json:"daily_rate"`
	Attendance          []string                `json:"attendance"`
	Payouts             []PayoutDTO             `json:"payouts"`
	AdditionalPays      []AdditionalPayDTO      `json:"additional_pays"`
	CarryForward        CarryForwardDTO         `json:"carry_forward"`
	ClosingBalance      string                  `json:"closing_balance"`
	RecalculationNeeded bool                    `json:"recalculation_needed"`
	AttendanceHistory   []AttendanceRevisionDTO `json:"attendance_history,omitempty"`
	Totals              *TotalsDTO              `json:"totals,omitempty"`
	CreatedAt           string                  `json:"created_at,omitempty"`
	UpdatedAt           string                  `json:"updated_at,omitempty"`
}

// PayoutDTO represents a single payout in API responses.
type PayoutDTO struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Remark     string `json:"remark,omitempty"`
	RecordedBy string `json:"recorded_by,omitempty"`
	Date       string `json:"date"`
}

// AdditionalPayDTO represents a bonus or adjustment in API responses.
type AdditionalPayDTO struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
	Remark string `json:"remark,omitempty"`
	Date   string `json:"date"`
}

// CarryForwardDTO represents the opening balance of a month.
type CarryForwardDTO struct {
	Amount string `json:"amount"`
	Remark string `json:"remark,omitempty"`
	Date   string `json:"date,omitempty"`
}

// AttendanceRevisionDTO is one entry of the attendance audit trail.
type AttendanceRevisionDTO struct {
	RevisionKey string   `json:"revision_key"`
	Snapshot    []string `json:"snapshot"`
	Editor      string   `json:"editor,omitempty"`
	Timestamp   string   `json:"timestamp"`
}

// TotalsDTO is the wage breakdown for a month.
type TotalsDTO struct {
	PresentDays         int    `json:"present_days"`
	OvertimeHours       int    `json:"overtime_hours"`
	BaseWage            string `json:"base_wage"`
	OvertimePay         string `json:"overtime_pay"`
	GrossWage           string `json:"gross_wage"`
	TotalAdditionalPays string `json:"total_additional_pays"`
	TotalPayouts        string `json:"total_payouts"`
	ClosingBalance      string `json:"closing_balance"`
}

// CreateMonthRequest is the request to open a new employee-month record.
type CreateMonthRequest struct {
	Month     int    `json:"month"`
	Year      int    `json:"year"`
	DailyRate string `json:"daily_rate"`
}

// AttendanceRequest records a single day's attendance code.
type AttendanceRequest struct {
	DayIndex int    `json:"day_index"`
	Token    string `json:"token"`
	Editor   string `json:"editor,omitempty"`
}

// PayoutRequest records an advance or wage payment.
type PayoutRequest struct {
	Amount     string `json:"amount"`
	Remark     string `json:"remark,omitempty"`
	RecordedBy string `json:"recorded_by,omitempty"`
}

// AdditionalPayRequest records a bonus or manual adjustment.
type AdditionalPayRequest struct {
	Amount string `json:"amount"`
	Remark string `json:"remark,omitempty"`
}

// RecalculateRequest triggers a recalculation chain from a starting month.
type RecalculateRequest struct {
	FromMonth int `json:"from_month"`
	FromYear  int `json:"from_year"`
}

// RecalculateResponse lists the months whose balances were rewritten.
type RecalculateResponse struct {
	Updated []PeriodDTO `json:"updated"`
}

// PeriodDTO is a month/year pair.
type PeriodDTO struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ImportRequestDTO asks the engine to carry a roster across months.
type ImportRequestDTO struct {
	SourceMonth            int      `json:"source_month"`
	SourceYear             int      `json:"source_year"`
	TargetMonth            int      `json:"target_month"`
	TargetYear             int      `json:"target_year"`
	EmployeeIDs            []string `json:"employee_ids,omitempty"`
	PreserveCarryForward   bool     `json:"preserve_carry_forward"`
	PreserveAdditionalPays bool     `json:"preserve_additional_pays"`
}

// ImportResultDTO reports the per-employee outcome of an import.
type ImportResultDTO struct {
	Imported []string         `json:"imported"`
	Skipped  []ImportSkipDTO  `json:"skipped"`
	Errors   []ImportErrorDTO `json:"errors"`
}

type ImportSkipDTO struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type ImportErrorDTO struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// CurrentPeriodDTO reports the business-timezone current month.
type CurrentPeriodDTO struct {
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	Timezone string `json:"timezone"`
	Now      string `json:"now"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toEmployeeMonthDTO(em *payroll.EmployeeMonth, totals *payroll.Totals) EmployeeMonthDTO {
	dto := EmployeeMonthDTO{
		EmployeeID:          string(em.EmployeeID),
		SiteID:              string(em.SiteID),
		Month:               em.Period.Month,
		Year:                em.Period.Year,
		DailyRate:           em.DailyRate.String(),
		Attendance:          em.Attendance,
		Payouts:             make([]PayoutDTO, len(em.Payouts)),
		AdditionalPays:      make([]AdditionalPayDTO, len(em.AdditionalPays)),
		CarryForward:        toCarryForwardDTO(em.CarryForward),
		ClosingBalance:      em.ClosingBalance.String(),
		RecalculationNeeded: em.RecalculationNeeded,
		CreatedAt:           formatTime(em.CreatedAt),
		UpdatedAt:           formatTime(em.UpdatedAt),
	}

	for i, p := range em.Payouts {
		dto.Payouts[i] = PayoutDTO{
			ID:         p.ID,
			Amount:     p.Amount.String(),
			Remark:     p.Remark,
			RecordedBy: p.RecordedBy,
			Date:       formatTime(p.Date),
		}
	}
	for i, a := range em.AdditionalPays {
		dto.AdditionalPays[i] = AdditionalPayDTO{
			ID:     a.ID,
			Amount: a.Amount.String(),
			Remark: a.Remark,
			Date:   formatTime(a.Date),
		}
	}
	for _, rev := range em.AttendanceHistory {
		dto.AttendanceHistory = append(dto.AttendanceHistory, AttendanceRevisionDTO{
			RevisionKey: rev.RevisionKey,
			Snapshot:    rev.Snapshot,
			Editor:      rev.Editor,
			Timestamp:   formatTime(rev.Timestamp),
		})
	}
	if totals != nil {
		dto.Totals = &TotalsDTO{
			PresentDays:         totals.PresentDays,
			OvertimeHours:       totals.OvertimeHours,
			BaseWage:            totals.BaseWage.String(),
			OvertimePay:         totals.OvertimePay.String(),
			GrossWage:           totals.GrossWage.String(),
			TotalAdditionalPays: totals.TotalAdditionalPays.String(),
			TotalPayouts:        totals.TotalPayouts.String(),
			ClosingBalance:      totals.ClosingBalance.String(),
		}
	}

	return dto
}

func toCarryForwardDTO(cf payroll.CarryForward) CarryForwardDTO {
	return CarryForwardDTO{
		Amount: cf.Amount.String(),
		Remark: cf.Remark,
		Date:   formatTime(cf.Date),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
