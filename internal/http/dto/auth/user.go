// Package auth contiene los DTOs de los endpoints de autenticación.
package auth

import (
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
)

// UserSummary es la vista pública de una identidad. Nunca incluye el hash
// ni los slots de tokens.
type UserSummary struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	FirstName   string             `json:"firstName"`
	LastName    string             `json:"lastName"`
	Role        string             `json:"role"`
	IsActive    bool               `json:"isActive"`
	IsVerified  bool               `json:"isVerified"`
	Avatar      string             `json:"avatar,omitempty"`
	Preferences domain.Preferences `json:"preferences"`
	LastLoginAt *time.Time         `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func NewUserSummary(it *domain.Identity) UserSummary {
	return UserSummary{
		ID:          it.ID,
		Email:       it.Email,
		FirstName:   it.FirstName,
		LastName:    it.LastName,
		Role:        string(it.Role),
		IsActive:    it.IsActive,
		IsVerified:  it.IsVerified,
		Avatar:      it.Avatar,
		Preferences: it.Preferences,
		LastLoginAt: it.LastLoginAt,
		CreatedAt:   it.CreatedAt,
	}
}
