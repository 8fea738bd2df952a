package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/credgate/internal/domain"
	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/onetime"
)

type verificationService struct{ *core }

func (s *verificationService) Verify(ctx context.Context, token string) (*dto.UserSummary, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.verify"),
		logger.Op("Verify"),
	)

	it, err := s.Tokens.Consume(ctx, domain.TokenEmailVerify, token, domain.Transition{MarkVerified: true})
	if errors.Is(err, onetime.ErrInvalidToken) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("consume verify token: %w", err)
	}

	to := recipient(it)
	s.notify(ctx, "welcome", func(ctx context.Context) error {
		return s.Notifier.SendWelcome(ctx, to)
	})

	log.Info("email verified", logger.UserID(it.ID))
	out := dto.NewUserSummary(it)
	return &out, nil
}

func (s *verificationService) Resend(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.verify"),
		logger.Op("Resend"),
	)

	email = domain.NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}
	it, err := s.Identities.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}
	if it.IsVerified {
		return ErrAlreadyVerified
	}

	// Reemitir pisa el token anterior.
	token, err := s.Tokens.Issue(ctx, domain.TokenEmailVerify, it.ID)
	if err != nil {
		return fmt.Errorf("issue verify token: %w", err)
	}
	to := recipient(it)
	s.notify(ctx, "verify", func(ctx context.Context) error {
		return s.Notifier.SendVerification(ctx, to, token)
	})

	log.Info("verification re-sent", logger.UserID(it.ID))
	return nil
}
