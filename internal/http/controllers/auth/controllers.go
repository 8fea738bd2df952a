// Package auth contiene los controllers de autenticación.
package auth

import (
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	svc "github.com/dropDatabas3/credgate/internal/http/services/auth"
)

// Config son los parámetros de transporte compartidos.
type Config struct {
	Cookie helpers.CookieConfig
}

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register     *RegisterController
	Login        *LoginController
	Verification *VerificationController
	Password     *PasswordController
	Session      *SessionController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, cfg Config) *Controllers {
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "refresh_token"
	}
	return &Controllers{
		Register:     NewRegisterController(s.Register),
		Login:        NewLoginController(s.Login, cfg.Cookie),
		Verification: NewVerificationController(s.Verification),
		Password:     NewPasswordController(s.Password),
		Session:      NewSessionController(s.Session, cfg.Cookie),
	}
}
