// Package auth contiene la lógica del ciclo de credenciales: alta,
// verificación de email, login, refresh, recuperación y cambio de contraseña.
//
// Los servicios devuelven errores sentinela; los controllers los mapean a
// httperrors con errors.Is.
package auth

import (
	"context"
	"errors"
	"strings"

	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
)

type RegisterService interface {
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserSummary, error)
}

type LoginService interface {
	// Login no distingue email inexistente de contraseña incorrecta.
	Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error)
}

type VerificationService interface {
	Verify(ctx context.Context, token string) (*dto.UserSummary, error)
	Resend(ctx context.Context, email string) error
}

type PasswordService interface {
	// Forgot responde nil para emails desconocidos.
	Forgot(ctx context.Context, email string) error
	Reset(ctx context.Context, in dto.ResetPasswordRequest) error
	Change(ctx context.Context, identityID string, in dto.ChangePasswordRequest) error
}

type SessionService interface {
	// Refresh valida el refresh token, revalida la identidad y rota ambos tokens.
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResult, error)
}

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password does not satisfy policy")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionInvalid     = errors.New("invalid session")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrNotificationFailed = errors.New("notification failed")
)

// PolicyError detalla por qué una contraseña no cumple la política.
// errors.Is(err, ErrWeakPassword) es true.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return ErrWeakPassword.Error() + ": " + strings.Join(e.Reasons, ",")
}

func (e *PolicyError) Is(target error) bool { return target == ErrWeakPassword }
