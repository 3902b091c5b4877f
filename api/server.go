/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP behind proxies
  3. httplog:    Structured slog request logging (JSON)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend
  6. Heartbeat:  Liveness probe on /ping

ROUTE GROUPS:
  /api/sites/{siteID}/employees/{employeeID}/*   Per-employee ledger ops
  /api/sites/{siteID}/*                          Roster and imports
  /api/period/*                                  Time authority

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
	)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/sites/{siteID}", func(r chi.Router) {
			r.Route("/employees/{employeeID}", func(r chi.Router) {
				r.Post("/months", h.CreateMonth)
				r.Post("/recalculate", h.Recalculate)

				r.Route("/months/{year}/{month}", func(r chi.Router) {
					r.Get("/", h.GetMonth)
					r.Post("/attendance", h.RecordAttendance)
					r.Post("/payouts", h.AddPayout)
					r.Post("/additional-pays", h.AddAdditionalPay)
					r.Get("/carry-forward/verify", h.VerifyCarryForward)
				})
			})

			r.Get("/months/{year}/{month}", h.ListSiteMonth)
			r.Post("/imports", h.Import)
		})

		r.Get("/period/current", h.CurrentPeriod)

		// Dev only
		r.Post("/demo/load", h.LoadDemo)
	})

	return r
}
