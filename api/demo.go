/*
demo.go - Demo data loader

PURPOSE:
  Seeds a small construction site with realistic ledger data so the API
  can be exercised without a client. Dev convenience only; there is no
  auth gate, so do not mount this in production deployments.

SEE ALSO:
  - server.go: Route registration
*/
package api

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// LoadDemo seeds one site with three employees over two months.
// POST /api/demo/load
func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := payroll.SiteID("site-riverside")
	period := h.Engine.Clock().CurrentPeriod().Prev()

	type worker struct {
		id   payroll.EmployeeID
		rate string
	}
	workers := []worker{
		{"emp-ravi", "600"},
		{"emp-sita", "550"},
		{"emp-mahesh", "700"},
	}

	for _, wk := range workers {
		rate, _ := decimal.NewFromString(wk.rate)
		_, err := h.Engine.CreateEmployeeMonth(ctx, wk.id, site, period, rate)
		if err != nil && !payroll.IsDuplicate(err) {
			writeEngineError(w, err)
			return
		}

		// A typical month: mostly present, a few overtime days, one advance.
		days := period.Days()
		for day := 0; day < days; day++ {
			token := "P"
			switch {
			case day%7 == 6:
				token = "A"
			case day%10 == 4:
				token = "P4"
			}
			if err := h.Engine.RecordAttendance(ctx, wk.id, site, period, day, token, "demo"); err != nil {
				writeEngineError(w, err)
				return
			}
		}
		if err := h.Engine.AddPayout(ctx, wk.id, site, period,
			decimal.NewFromInt(2000), "weekly advance", "demo"); err != nil {
			writeEngineError(w, err)
			return
		}
	}

	// Settle balances, then carry the roster into the current month.
	for _, wk := range workers {
		if _, err := h.Engine.Recalculate(ctx, wk.id, site, period); err != nil {
			writeEngineError(w, err)
			return
		}
	}

	result, err := h.Engine.ImportEmployees(ctx, payroll.ImportRequest{
		SiteID:               site,
		Source:               period,
		Target:               period.Next(),
		PreserveCarryForward: true,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"site":     string(site),
		"seeded":   len(workers),
		"imported": len(result.Imported),
	})
}
