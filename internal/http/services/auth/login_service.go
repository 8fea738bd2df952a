package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/credgate/internal/domain"
	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

type loginService struct{ *core }

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	in.Email = domain.NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	it, err := s.Identities.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		// Mismo costo que una contraseña incorrecta.
		_ = s.Hasher.Verify(in.Password, s.dummy())
		log.Debug("login for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	log = log.With(logger.UserID(it.ID))

	if !s.Hasher.Verify(in.Password, it.PasswordHash) {
		log.Debug("wrong password")
		return nil, ErrInvalidCredentials
	}
	if !it.IsActive {
		log.Info("login rejected: account inactive")
		return nil, ErrAccountInactive
	}

	now := s.Now().UTC()
	if err := s.Identities.TouchLastLogin(ctx, it.ID, now); err != nil {
		log.Warn("touch last login failed", logger.Err(err))
	} else {
		it.LastLoginAt = &now
	}

	res, err := s.issueSession(it)
	if err != nil {
		return nil, err
	}
	log.Info("login succeeded")
	return res, nil
}

// issueSession firma el par access/refresh para la identidad.
func (c *core) issueSession(it *domain.Identity) (*dto.LoginResult, error) {
	access, accessExp, err := c.Issuer.IssueAccess(it)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := c.Issuer.IssueRefresh(it.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &dto.LoginResult{
		User:             dto.NewUserSummary(it),
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
