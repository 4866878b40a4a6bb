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
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/rates/*        Daily rate lookups
  /api/investment/*   Yield calculations
  /api/business-day   Business-day classification
  /api/holidays       Holiday calendar
  /api/simulation     Long-horizon projections
  /api/quotes/*       Spot-price passthrough
  /api/history        Served calculation history
  /api/ping           Health check

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
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/rates", func(r chi.Router) {
			r.Get("/daily", h.GetDailyRate)
		})

		r.Route("/investment", func(r chi.Router) {
			r.Get("/", h.GetInvestment)
			r.Get("/analysis", h.GetAnalysis)
		})

		r.Get("/business-day", h.GetBusinessDay)
		r.Get("/holidays", h.ListHolidays)
		r.Post("/simulation", h.PostSimulation)
		r.Get("/quotes/{symbol}", h.GetQuote)
		r.Get("/history", h.GetHistory)
		r.Get("/ping", h.Ping)
	})

	return r
}
