/*
scheduler.go - Background recalculation sweeper

PURPOSE:
  Periodically scans for records flagged RecalculationNeeded and runs the
  recalculation chain for each affected employee. This is the safety net
  behind the on-demand recalculate endpoint: a crash, a failed cascade or
  an operator who never pressed "recalculate" all converge to correct
  balances within one sweep interval.

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - Groups dirty records by (employee, site) and starts each chain at the
    earliest dirty month, so one pass settles the whole chain
  - The engine's per-chain lock makes a sweep concurrent-safe against
    API-triggered recalculations

CONFIGURATION:
  - SweepInterval: How often to sweep (default: 15 minutes)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewRecalculationSweeper(engine)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - handlers.go: Recalculate endpoint (manual trigger)
  - payroll/recalc.go: The chain walk this drives
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// RecalculationSweeper settles dirty balances in the background.
type RecalculationSweeper struct {
	Engine        *payroll.Engine
	Store         payroll.Store
	Logger        *slog.Logger
	SweepInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRecalculationSweeper creates a new sweeper.
func NewRecalculationSweeper(engine *payroll.Engine, store payroll.Store, logger *slog.Logger) *RecalculationSweeper {
	return &RecalculationSweeper{
		Engine:        engine,
		Store:         store,
		Logger:        logger,
		SweepInterval: 15 * time.Minute,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the sweeper.
func (rs *RecalculationSweeper) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("sweeper disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.SweepInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("sweeper started", slog.Duration("interval", rs.SweepInterval))
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
// Safe to call more than once; calls after the first are no-ops.
func (rs *RecalculationSweeper) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Logger.Info("sweeper stopped")
}

func (rs *RecalculationSweeper) run() {
	defer rs.wg.Done()

	// Sweep immediately on start: dirty flags survive restarts.
	rs.Sweep(context.Background())

	for {
		select {
		case <-rs.ticker.C:
			rs.Sweep(context.Background())
		case <-rs.stop:
			return
		}
	}
}

// Sweep runs one pass over all dirty records. Exported for tests and for
// an admin-triggered immediate sweep.
func (rs *RecalculationSweeper) Sweep(ctx context.Context) {
	keys, err := rs.Store.ListDirty(ctx)
	if err != nil {
		rs.Logger.Error("sweep failed to list dirty records", slog.Any("error", err))
		return
	}
	if len(keys) == 0 {
		return
	}

	// Keys arrive in ascending period order per chain, so the first key seen
	// for a chain is its earliest dirty month.
	type chain struct {
		employeeID payroll.EmployeeID
		siteID     payroll.SiteID
	}
	starts := make(map[chain]payroll.MonthKey)
	var order []chain
	for _, key := range keys {
		c := chain{key.EmployeeID, key.SiteID}
		if _, seen := starts[c]; !seen {
			starts[c] = key.Period
			order = append(order, c)
		}
	}

	settled := 0
	for _, c := range order {
		updated, err := rs.Engine.Recalculate(ctx, c.employeeID, c.siteID, starts[c])
		if err != nil {
			rs.Logger.Error("sweep recalculation failed",
				slog.String("employee", string(c.employeeID)),
				slog.String("site", string(c.siteID)),
				slog.Any("error", err))
			continue
		}
		settled += len(updated)
	}

	rs.Logger.Info("sweep completed",
		slog.Int("chains", len(order)),
		slog.Int("months_settled", settled))
}
