package jwt

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind distingue tokens de acceso y de refresh. Viaja en el claim "typ".
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var errWrongKind = errors.New("token kind mismatch")

// AccessClaims: sub, email y role más los registrados (iss, aud, exp, iat, jti).
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  Kind   `json:"typ"`
	jwtv5.RegisteredClaims
}

// Validate se ejecuta después de la validación estándar de golang-jwt.
func (c *AccessClaims) Validate() error {
	if c.Type != KindAccess {
		return errWrongKind
	}
	if c.Subject == "" {
		return jwtv5.ErrTokenRequiredClaimMissing
	}
	return nil
}

// RefreshClaims solo identifica al sujeto.
type RefreshClaims struct {
	Type Kind `json:"typ"`
	jwtv5.RegisteredClaims
}

func (c *RefreshClaims) Validate() error {
	if c.Type != KindRefresh {
		return errWrongKind
	}
	if c.Subject == "" {
		return jwtv5.ErrTokenRequiredClaimMissing
	}
	return nil
}
