/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. CORS:       Cross-origin requests for frontend
  2. httplog:    Structured request logging (ECS schema)
  3. RequestID:  Unique ID per request for tracing
  4. CleanPath:  Normalises double slashes
  5. Recoverer:  Panic recovery (500 instead of crash)

ROUTE GROUPS:
  /api/components       Salary component catalogue
  /api/designations/*   Designation rate configs
  /api/employees/*      Employees, attendance, reports
  /api/payslips/*       Draft payslips and the adjustment merge
  /api/scenarios/*      Demo data
  /metrics              Prometheus
  /health               Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fours/payroll-engine/export"
)

// RouterOptions configures NewRouter. The zero value allows any origin and
// logs requests with the handler's logger.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = h.logger
	}

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/components", h.ListComponents)

		// Designation routes
		r.Route("/designations", func(r chi.Router) {
			r.Get("/", h.ListDesignations)
			r.Post("/", h.CreateDesignation)
			r.Get("/{id}", h.GetDesignation)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/attendance", h.ListAttendance)
			r.Post("/{id}/attendance", h.CreateAttendance)
			r.Get("/{id}/attendance-summary", h.GetAttendanceSummary)
			r.Get("/{id}/overtime", h.GetOvertime)
		})

		// Payslip routes
		r.Route("/payslips", func(r chi.Router) {
			r.Get("/", h.ListPayslips)
			r.Post("/", h.CreatePayslip)
			r.Get("/{id}", h.GetPayslip)
			r.Post("/{id}/adjust", h.AdjustPayslip)
			r.Post("/{id}/submit", h.SubmitPayslip)
			r.Post("/{id}/cancel", h.CancelPayslip)
			r.Get("/{id}/pdf", h.ExportPayslip(export.FormatPDF))
			r.Get("/{id}/xlsx", h.ExportPayslip(export.FormatXLSX))
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
