/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the counter frontend

SECURITY NOTE:
  No authentication middleware. A single-location shop runs this on a
  trusted network; roles and permissions are handled elsewhere.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Item routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Get("/{sku}", h.GetItem)
			r.Put("/{sku}", h.UpdateItem)
			r.Delete("/{sku}", h.DeleteItem)
			r.Get("/{sku}/status", h.GetItemStatus)
		})

		// Status dashboard
		r.Get("/status", h.StatusDashboard)

		// Search and scan resolution
		r.Get("/search", h.SearchItems)
		r.Get("/resolve", h.ResolveItem)

		// Cart sessions
		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.CreateCart)
			r.Get("/{id}", h.GetCart)
			r.Post("/{id}/lines", h.AddCartLine)
			r.Put("/{id}/lines/{sku}", h.UpdateCartLine)
			r.Delete("/{id}/lines/{sku}", h.RemoveCartLine)
			r.Post("/{id}/checkout", h.Checkout)
		})

		// Direct transaction submission
		r.Post("/transactions", h.SubmitTransaction)

		// Scenario routes (demo/dev)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
