package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
)

// RegisterController maneja el endpoint de registro.
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(service svc.RegisterService) *RegisterController {
	return &RegisterController{service: service}
}

// Register maneja POST /register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	user, err := c.service.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusCreated, "Registration successful. Please check your email to verify your account.", user)
}
