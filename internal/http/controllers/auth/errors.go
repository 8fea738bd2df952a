package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
)

// writeServiceError mapea errores del service a AppError. Lo no mapeado
// termina en 500 con errorId.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *svc.PolicyError
	switch {
	case errors.As(err, &pe):
		httperrors.WriteError(w, r, httperrors.ErrWeakPassword.WithData(map[string]any{"reasons": pe.Reasons}))
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, r, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidEmail):
		httperrors.WriteError(w, r, httperrors.ErrInvalidEmail)
	case errors.Is(err, svc.ErrEmailTaken):
		httperrors.WriteError(w, r, httperrors.ErrEmailTaken)
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, r, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrAccountInactive):
		httperrors.WriteError(w, r, httperrors.ErrAccountInactive)
	case errors.Is(err, svc.ErrInvalidToken):
		httperrors.WriteError(w, r, httperrors.ErrInvalidToken)
	case errors.Is(err, svc.ErrAlreadyVerified):
		httperrors.WriteError(w, r, httperrors.ErrAlreadyVerified)
	case errors.Is(err, svc.ErrUserNotFound):
		httperrors.WriteError(w, r, httperrors.ErrUserNotFound)
	case errors.Is(err, svc.ErrSessionInvalid):
		w.Header().Set("WWW-Authenticate", `Bearer`)
		httperrors.WriteError(w, r, httperrors.ErrSessionInvalid)
	case errors.Is(err, svc.ErrWrongPassword):
		httperrors.WriteError(w, r, httperrors.ErrWrongPassword)
	case errors.Is(err, svc.ErrNotificationFailed):
		httperrors.WriteError(w, r, httperrors.ErrNotificationFailed.WithCause(err))
	default:
		httperrors.WriteError(w, r, httperrors.ErrInternal.WithCause(err))
	}
}
