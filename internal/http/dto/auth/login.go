package auth

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse va en data. El refresh token viaja sólo en la cookie.
type LoginResponse struct {
	User        UserSummary `json:"user"`
	AccessToken string      `json:"accessToken"`
	TokenType   string      `json:"tokenType"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// LoginResult es el resultado interno del servicio.
type LoginResult struct {
	User             UserSummary
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshResponse es la respuesta de POST /refresh.
type RefreshResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// SessionResponse es la respuesta de GET /session.
type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *UserSummary `json:"user,omitempty"`
}
