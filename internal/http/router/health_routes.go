package router

import "github.com/go-chi/chi/v5"

// Health y métricas quedan fuera del rate limiting.
func registerHealthRoutes(r chi.Router, d Deps) {
	r.Get("/healthz", d.Health.Health.Live)
	r.Get("/readyz", d.Health.Health.Ready)
	if d.MetricsHandler != nil {
		r.Method("GET", "/metrics", d.MetricsHandler)
	}
}
