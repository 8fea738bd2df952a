// Package domain define el modelo de identidad y el contrato del store que
// consume el núcleo de autenticación.
package domain

import (
	"strings"
	"time"
)

// Role es el rol de autorización de una identidad.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reporta si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// TokenKind identifica el slot de token de un solo uso.
type TokenKind string

const (
	TokenEmailVerify   TokenKind = "email_verify"
	TokenPasswordReset TokenKind = "password_reset"
)

func (k TokenKind) Valid() bool {
	return k == TokenEmailVerify || k == TokenPasswordReset
}

// Preferences son las preferencias de notificación y tema del usuario.
type Preferences struct {
	Notifications bool   `json:"notifications"`
	Theme         string `json:"theme"`
}

// DefaultPreferences se aplican al crear una identidad.
var DefaultPreferences = Preferences{Notifications: true, Theme: "light"}

// Identity es el registro durable de una cuenta.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	Role         Role
	IsVerified   bool
	Avatar       string
	Preferences  Preferences
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Slots de tokens de un solo uso. Solo se persiste el hash.
	VerifyTokenHash      string
	VerifyTokenExpiresAt *time.Time
	ResetTokenHash       string
	ResetTokenExpiresAt  *time.Time
}

// TokenSlot devuelve el hash y la expiración guardados para kind.
func (i *Identity) TokenSlot(kind TokenKind) (hash string, expiresAt *time.Time) {
	switch kind {
	case TokenEmailVerify:
		return i.VerifyTokenHash, i.VerifyTokenExpiresAt
	case TokenPasswordReset:
		return i.ResetTokenHash, i.ResetTokenExpiresAt
	}
	return "", nil
}

// SetTokenSlot reemplaza el slot de kind. Un hash vacío limpia el slot.
func (i *Identity) SetTokenSlot(kind TokenKind, hash string, expiresAt *time.Time) {
	if hash == "" {
		expiresAt = nil
	}
	switch kind {
	case TokenEmailVerify:
		i.VerifyTokenHash, i.VerifyTokenExpiresAt = hash, expiresAt
	case TokenPasswordReset:
		i.ResetTokenHash, i.ResetTokenExpiresAt = hash, expiresAt
	}
}

// Transition es el cambio de estado que autoriza un token consumido.
// Se aplica en la misma operación atómica que limpia el slot.
type Transition struct {
	MarkVerified bool
	PasswordHash string
}

// Apply muta la identidad según la transición.
func (t Transition) Apply(i *Identity) {
	if t.MarkVerified {
		i.IsVerified = true
	}
	if t.PasswordHash != "" {
		i.PasswordHash = t.PasswordHash
	}
}

// CreateIdentityInput son los datos para dar de alta una identidad.
type CreateIdentityInput struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
}

// NormalizeEmail aplica trim + lowercase. Toda búsqueda por email pasa por acá.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
