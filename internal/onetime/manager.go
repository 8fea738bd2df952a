// Package onetime administra los tokens de un solo uso (verificación de email
// y reset de contraseña).
//
// El valor en claro solo existe en memoria mientras se entrega al usuario; el
// store guarda su SHA-256 y una expiración absoluta. Consumir un token es una
// operación atómica del store que compara el hash, limpia el slot y aplica la
// transición que el token autoriza.
package onetime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/credgate/internal/security/token"
)

// ErrInvalidToken agrupa token vencido, incorrecto, ausente o ya usado.
var ErrInvalidToken = errors.New("invalid or expired token")

const (
	DefaultVerifyWindow = 24 * time.Hour
	DefaultResetWindow  = 10 * time.Minute
)

type Config struct {
	VerifyWindow time.Duration
	ResetWindow  time.Duration
	Now          func() time.Time
}

type Manager struct {
	repo    domain.IdentityRepository
	windows map[domain.TokenKind]time.Duration
	now     func() time.Time
}

func NewManager(repo domain.IdentityRepository, cfg Config) *Manager {
	if cfg.VerifyWindow <= 0 {
		cfg.VerifyWindow = DefaultVerifyWindow
	}
	if cfg.ResetWindow <= 0 {
		cfg.ResetWindow = DefaultResetWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		repo: repo,
		windows: map[domain.TokenKind]time.Duration{
			domain.TokenEmailVerify:   cfg.VerifyWindow,
			domain.TokenPasswordReset: cfg.ResetWindow,
		},
		now: cfg.Now,
	}
}

// Window devuelve la validez configurada para kind.
func (m *Manager) Window(kind domain.TokenKind) time.Duration {
	return m.windows[kind]
}

// Issue genera un token nuevo para la identidad y reemplaza el anterior del
// mismo tipo. Devuelve el valor en claro; no se guarda en ningún lado.
func (m *Manager) Issue(ctx context.Context, kind domain.TokenKind, identityID string) (string, error) {
	window, ok := m.windows[kind]
	if !ok {
		return "", fmt.Errorf("onetime: unknown token kind %q", kind)
	}
	plain, err := tokens.GenerateOpaqueToken(tokens.OpaqueBytes)
	if err != nil {
		return "", err
	}
	exp := m.now().Add(window)
	if err := m.repo.SetSingleUseToken(ctx, identityID, kind, tokens.SHA256Hex(plain), exp); err != nil {
		return "", fmt.Errorf("onetime: store token: %w", err)
	}
	logger.From(ctx).Debug("single-use token issued",
		logger.Component("onetime"),
		logger.UserID(identityID),
		logger.TokenKind(string(kind)),
	)
	return plain, nil
}

// Consume valida el token presentado y aplica t en la misma operación que lo
// invalida. Cualquier rechazo devuelve ErrInvalidToken; los errores del store
// distintos de "no encontrado" se propagan envueltos.
func (m *Manager) Consume(ctx context.Context, kind domain.TokenKind, plaintext string, t domain.Transition) (*domain.Identity, error) {
	if _, ok := m.windows[kind]; !ok {
		return nil, fmt.Errorf("onetime: unknown token kind %q", kind)
	}
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, ErrInvalidToken
	}
	it, err := m.repo.ConsumeSingleUseToken(ctx, kind, tokens.SHA256Hex(plaintext), m.now(), t)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("onetime: consume: %w", err)
	}
	return it, nil
}

// Clear invalida el token vigente de kind sin aplicar ninguna transición.
func (m *Manager) Clear(ctx context.Context, kind domain.TokenKind, identityID string) error {
	if err := m.repo.ClearSingleUseToken(ctx, identityID, kind); err != nil {
		return fmt.Errorf("onetime: clear: %w", err)
	}
	return nil
}
