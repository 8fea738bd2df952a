package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	mw "github.com/dropDatabas3/credgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
)

// forgotMessage es idéntico exista o no la cuenta.
const forgotMessage = "If an account with that email exists, a password reset link has been sent"

type PasswordController struct {
	service svc.PasswordService
}

func NewPasswordController(service svc.PasswordService) *PasswordController {
	return &PasswordController{service: service}
}

// Forgot maneja POST /forgot-password
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.Forgot(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, forgotMessage, nil)
}

// Reset maneja POST /reset-password
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.Reset(r.Context(), req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, "Password has been reset", nil)
}

// Change maneja POST /change-password (requiere RequireAuth).
func (c *PasswordController) Change(w http.ResponseWriter, r *http.Request) {
	p, ok := mw.PrincipalFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	var req dto.ChangePasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.Change(r.Context(), p.Identity.ID, req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, "Password changed", nil)
}
