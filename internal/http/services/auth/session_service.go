package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/credgate/internal/domain"
	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

type sessionService struct{ *core }

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Refresh"),
	)

	if refreshToken == "" {
		return nil, ErrSessionInvalid
	}
	claims, err := s.Issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	// El rol y el estado pueden haber cambiado desde el login.
	it, err := s.Identities.GetByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("refresh for unknown identity")
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if !it.IsActive {
		log.Info("refresh rejected: account inactive", logger.UserID(it.ID))
		return nil, ErrSessionInvalid
	}

	return s.issueSession(it)
}
