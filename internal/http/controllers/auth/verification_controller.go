package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
)

type VerificationController struct {
	service svc.VerificationService
}

func NewVerificationController(service svc.VerificationService) *VerificationController {
	return &VerificationController{service: service}
}

// Verify maneja GET /verify-email?token=
func (c *VerificationController) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := c.service.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, "Email verified successfully", user)
}

// Resend maneja POST /resend-verification
func (c *VerificationController) Resend(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.Resend(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.OK(w, http.StatusOK, "Verification email sent", nil)
}
