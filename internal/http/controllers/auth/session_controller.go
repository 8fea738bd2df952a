package auth

import (
	"errors"
	"net/http"
	"time"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	mw "github.com/dropDatabas3/credgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
)

// SessionController maneja refresh, profile y session.
type SessionController struct {
	service svc.SessionService
	cookie  helpers.CookieConfig
}

func NewSessionController(service svc.SessionService, cookie helpers.CookieConfig) *SessionController {
	return &SessionController{service: service, cookie: cookie}
}

// Refresh maneja POST /refresh. El refresh token se lee sólo de la cookie.
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Refresh(r.Context(), helpers.RefreshCookie(r, c.cookie))
	if err != nil {
		if errors.Is(err, svc.ErrSessionInvalid) {
			helpers.ClearRefreshCookie(w, c.cookie)
		}
		writeServiceError(w, r, err)
		return
	}

	helpers.SetRefreshCookie(w, c.cookie, res.RefreshToken, time.Until(res.RefreshExpiresAt))
	helpers.OK(w, http.StatusOK, "Token refreshed", dto.RefreshResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.AccessExpiresAt,
	})
}

// Profile maneja GET /profile (requiere RequireAuth).
func (c *SessionController) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := mw.PrincipalFrom(r.Context())
	if !ok {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	helpers.OK(w, http.StatusOK, "Profile retrieved", dto.NewUserSummary(p.Identity))
}

// Session maneja GET /session (OptionalAuth): nunca 401.
func (c *SessionController) Session(w http.ResponseWriter, r *http.Request) {
	out := dto.SessionResponse{}
	if p, ok := mw.PrincipalFrom(r.Context()); ok {
		u := dto.NewUserSummary(p.Identity)
		out.Authenticated = true
		out.User = &u
	}
	helpers.OK(w, http.StatusOK, "Session status", out)
}
