// Package admin contiene los controllers de administración.
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/admin"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	svc "github.com/dropDatabas3/credgate/internal/http/services/admin"
)

// Controllers agrupa todos los controllers del dominio admin.
type Controllers struct {
	Users *UsersController
}

func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Users: &UsersController{service: s.Users}}
}

type UsersController struct {
	service svc.UsersService
}

// Get maneja GET /admin/users/{id}
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	user, err := c.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, "User retrieved", user)
}

// SetStatus maneja PATCH /admin/users/{id}/status
func (c *UsersController) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.SetStatusRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if req.IsActive == nil {
		httperrors.WriteError(w, r, httperrors.ErrMissingFields)
		return
	}

	user, err := c.service.SetStatus(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, "User status updated", user)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, svc.ErrUserNotFound) {
		httperrors.WriteError(w, r, httperrors.ErrUserNotFound)
		return
	}
	httperrors.WriteError(w, r, httperrors.ErrInternal.WithCause(err))
}
