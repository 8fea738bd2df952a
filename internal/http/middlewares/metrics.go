package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestObserver recibe las mediciones HTTP. La implementación vive en
// el paquete http (prometheus).
type RequestObserver interface {
	ObserveRequest(method, route string, status int, took time.Duration)
	InflightAdd(delta float64)
}

// WithMetrics mide cada request. La ruta se toma del patrón de chi para no
// explotar la cardinalidad con ids.
func WithMetrics(obs RequestObserver) Middleware {
	if obs == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			obs.InflightAdd(1)
			defer obs.InflightAdd(-1)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			obs.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}
