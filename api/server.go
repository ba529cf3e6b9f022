/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers;
  the handlers only invoke the propagation pipelines and render their
  results.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/packages                Package key listing
  /api/rulesets/{package}/*    Rule-set CRUD, init, propagation triggers
  /api/customers/*             Selection views, plan view, task updates

SECURITY NOTE:
  No authentication middleware. Session management is owned by an
  external subsystem; the actor identity arrives in the X-Actor-Email
  header set by the dashboard.

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
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-Email"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/packages", h.ListPackages)

		// Rule-set routes
		r.Route("/rulesets/{package}", func(r chi.Router) {
			r.Get("/", h.GetRuleSet)
			r.Put("/sections", h.SaveSections)
			r.Post("/init", h.InitPackage)
			r.Post("/resync", h.ResyncAll)

			r.Route("/rules", func(r chi.Router) {
				r.Post("/", h.CreateRule)
				r.Put("/{id}", h.UpdateRule)
				r.Delete("/{id}", h.DeleteRule)
				r.Post("/{id}/apply", h.ApplyRule)
			})
		})

		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Get("/{id}/plan", h.GetPlan)
			r.Post("/{id}/plan/tasks", h.AddAdHocTask)
			r.Put("/{id}/plan/tasks/{taskID}", h.UpdateTask)
		})
	})

	return r
}
