// Package router define el árbol de rutas HTTP del servicio (chi).
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/credgate/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/credgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/credgate/internal/http/controllers/health"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	mw "github.com/dropDatabas3/credgate/internal/http/middlewares"
	"github.com/dropDatabas3/credgate/internal/rate"
)

// Deps contiene todo lo que necesita el router. Los limiters nil
// desactivan el rate limiting del grupo.
type Deps struct {
	Auth   *authctrl.Controllers
	Admin  *adminctrl.Controllers
	Health *healthctrl.Controllers

	Gate mw.AuthConfig

	AuthLimiter    rate.Limiter
	GeneralLimiter rate.Limiter
	TrustProxy     bool
	CORSOrigins    []string

	// Observer y OnRateLimited alimentan /metrics. Opcionales.
	Observer       mw.RequestObserver
	OnRateLimited  func(group string)
	MetricsHandler http.Handler
}

// New arma el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(d.TrustProxy),
		mw.WithRecover(),
		mw.WithMetrics(d.Observer),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, r, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, r, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithNoStore(),
			mw.WithRateLimit(mw.RateLimitConfig{
				Limiter:    d.GeneralLimiter,
				Group:      "general",
				TrustProxy: d.TrustProxy,
				OnReject:   d.OnRateLimited,
			}),
		)
		registerAuthRoutes(r, d)
		registerAdminRoutes(r, d)
	})

	return r
}
