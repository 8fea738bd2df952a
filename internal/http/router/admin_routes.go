package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/credgate/internal/domain"
	mw "github.com/dropDatabas3/credgate/internal/http/middlewares"
)

func registerAdminRoutes(r chi.Router, d Deps) {
	c := d.Admin
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Gate), mw.RequireRole(domain.RoleAdmin))
		r.Get("/users/{id}", c.Users.Get)
		r.Patch("/users/{id}/status", c.Users.SetStatus)
	})
}
