/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll reconciliation server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env / environment)
  2. Initialize business clock in the configured timezone
  3. Initialize SQLite store
  4. Create engine and API handler
  5. Start the background recalculation sweeper
  6. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper
  4. Close database connection
  5. Exit

ENVIRONMENT:
  APP_PORT        HTTP server port (default: 8080)
  DB_PATH         SQLite database path (default: ./data/payroll.db)
  PAYROLL_TZ      Business timezone (default: Asia/Kolkata)
  SWEEP_ENABLED   Background sweeper on/off (default: true)
  SWEEP_INTERVAL  Sweep period (default: 15m)

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The clock is the single time authority. A bad timezone is fatal:
	// every period decision depends on it.
	clock, err := payroll.NewClock(cfg.Payroll.Timezone)
	if err != nil {
		log.Fatalf("Failed to initialize clock: %v", err)
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	engine := payroll.NewEngine(store, clock)
	handler := api.NewHandler(engine)
	router := api.NewRouter(handler)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "payroll-engine"),
	)

	sweeper := api.NewRecalculationSweeper(engine, store, logger)
	sweeper.Enabled = cfg.Sweeper.Enabled
	sweeper.SweepInterval = cfg.Sweeper.Interval
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.App.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
