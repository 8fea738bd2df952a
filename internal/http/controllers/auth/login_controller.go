package auth

import (
	"net/http"
	"time"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// LoginController maneja login y logout.
type LoginController struct {
	service svc.LoginService
	cookie  helpers.CookieConfig
}

func NewLoginController(service svc.LoginService, cookie helpers.CookieConfig) *LoginController {
	return &LoginController{service: service, cookie: cookie}
}

// Login maneja POST /login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	res, err := c.service.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.SetRefreshCookie(w, c.cookie, res.RefreshToken, time.Until(res.RefreshExpiresAt))
	helpers.OK(w, http.StatusOK, "Login successful", dto.LoginResponse{
		User:        res.User,
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.AccessExpiresAt,
	})
}

// Logout maneja POST /logout. Los tokens no se persisten: cerrar sesión es
// borrar la cookie de refresh; el access token vence solo.
func (c *LoginController) Logout(w http.ResponseWriter, r *http.Request) {
	helpers.ClearRefreshCookie(w, c.cookie)
	logger.From(r.Context()).Info("logout", logger.Layer("controller"))
	helpers.OK(w, http.StatusOK, "Logged out", nil)
}
