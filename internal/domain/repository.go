package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("identity not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTokenNotFound = errors.New("single-use token not found")
)

// IdentityRepository es el contrato mínimo que el núcleo necesita del store.
//
// ConsumeSingleUseToken debe ser atómico: compara el hash, verifica que la
// expiración sea estrictamente posterior a now, limpia el slot y aplica t,
// todo en una única operación. Un segundo consumo del mismo hash falla con
// ErrTokenNotFound.
type IdentityRepository interface {
	Create(ctx context.Context, in CreateIdentityInput) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	SetSingleUseToken(ctx context.Context, id string, kind TokenKind, hash string, expiresAt time.Time) error
	ClearSingleUseToken(ctx context.Context, id string, kind TokenKind) error
	ConsumeSingleUseToken(ctx context.Context, kind TokenKind, hash string, now time.Time, t Transition) (*Identity, error)

	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id string, role Role) error

	Ping(ctx context.Context) error
	Close()
}
