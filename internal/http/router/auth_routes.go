package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/credgate/internal/http/middlewares"
)

func registerAuthRoutes(r chi.Router, d Deps) {
	c := d.Auth

	// Rutas que mutan credenciales: límite estricto por IP.
	r.Group(func(r chi.Router) {
		r.Use(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:    d.AuthLimiter,
			Group:      "auth",
			TrustProxy: d.TrustProxy,
			OnReject:   d.OnRateLimited,
		}))
		r.Post("/register", c.Register.Register)
		r.Post("/login", c.Login.Login)
		r.Post("/resend-verification", c.Verification.Resend)
		r.Post("/forgot-password", c.Password.Forgot)
		r.Post("/reset-password", c.Password.Reset)
	})

	r.Get("/verify-email", c.Verification.Verify)
	r.Post("/refresh", c.Session.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuth(d.Gate))
		r.Get("/session", c.Session.Session)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Gate))
		r.Post("/logout", c.Login.Logout)
		r.Get("/profile", c.Session.Profile)
		r.Post("/change-password", c.Password.Change)
	})
}
