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
  2. Logging:    One zerolog line per request (logging.Middleware)
  3. Metrics:    Prometheus counters and latency histogram
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/users/*          User directory
  /api/events/*         Single shifts
  /api/calendar/*       Month view and ICS export
  /api/selection/*      Range selection (per X-Session-ID)
  /api/payroll/*        Payroll report and downloads
  /api/scenarios/*      Demo scenarios
  /api/reset            Clear all data (dev only)
  /healthz              Liveness
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/warp/shift-engine/logging"
	"github.com/warp/shift-engine/metrics"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string

	// Metrics enables request instrumentation and /metrics when set.
	Metrics *metrics.Metrics

	Log zerolog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(opts.Log))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// User routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}/wage", h.UpdateWage)
			r.Delete("/{id}", h.DeleteUser)
			r.Get("/{id}/events", h.GetUserEvents)
		})

		// Event routes
		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Delete("/{id}", h.DeleteEvent)
		})

		// Calendar routes
		r.Route("/calendar/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.GetMonthView)
			r.Get("/ics", h.GetMonthICS)
		})

		// Range selection routes
		r.Route("/selection", func(r chi.Router) {
			r.Get("/", h.GetSelection)
			r.Post("/click", h.ClickDate)
			r.Post("/confirm", h.ConfirmSelection)
			r.Post("/cancel", h.CancelSelection)
		})

		// Payroll routes
		r.Route("/payroll/{year}/{month}", func(r chi.Router) {
			r.Get("/", h.GetPayroll)
			r.Get("/pdf", h.GetPayrollPDF)
			r.Get("/csv", h.GetPayrollCSV)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/healthz", h.Healthz)
	if opts.Metrics != nil {
		r.Method("GET", "/metrics", opts.Metrics.Handler())
	}

	return r
}
