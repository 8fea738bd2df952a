package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/credgate/internal/domain"
	dto "github.com/dropDatabas3/credgate/internal/http/dto/auth"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/validation"
)

type registerService struct{ *core }

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserSummary, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, ErrMissingFields
	}
	if !validation.ValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if err := s.checkPolicy(in.Password); err != nil {
		return nil, err
	}

	phc, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	it, err := s.Identities.Create(ctx, domain.CreateIdentityInput{
		Email:        in.Email,
		PasswordHash: phc,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         domain.RoleUser,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		log.Debug("email already registered")
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	log = log.With(logger.UserID(it.ID))

	// La cuenta ya existe: si el token o el envío fallan, el usuario puede
	// pedir otro con /resend-verification.
	token, err := s.Tokens.Issue(ctx, domain.TokenEmailVerify, it.ID)
	if err != nil {
		log.Warn("verification token issue failed", logger.Err(err))
	} else {
		to := recipient(it)
		s.notify(ctx, "verify", func(ctx context.Context) error {
			return s.Notifier.SendVerification(ctx, to, token)
		})
	}

	log.Info("identity registered")
	out := dto.NewUserSummary(it)
	return &out, nil
}
