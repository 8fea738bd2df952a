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

type passwordService struct{ *core }

func (s *passwordService) Forgot(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Forgot"),
	)

	email = domain.NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}
	it, err := s.Identities.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}
	log = log.With(logger.UserID(it.ID))
	if !it.IsActive {
		log.Info("password reset skipped: account inactive")
		return nil
	}

	token, err := s.Tokens.Issue(ctx, domain.TokenPasswordReset, it.ID)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	// El envío del reset es crítico: sin email el token no sirve, se limpia.
	if s.Notifier == nil {
		return fmt.Errorf("%w: no notifier configured", ErrNotificationFailed)
	}
	if err := s.Notifier.SendPasswordReset(ctx, recipient(it), token); err != nil {
		if cerr := s.Tokens.Clear(ctx, domain.TokenPasswordReset, it.ID); cerr != nil {
			log.Warn("reset token clear failed", logger.Err(cerr))
		}
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	log.Info("password reset requested")
	return nil
}

func (s *passwordService) Reset(ctx context.Context, in dto.ResetPasswordRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Reset"),
	)

	if in.Token == "" || in.NewPassword == "" {
		return ErrMissingFields
	}
	// La política se valida antes de consumir: una contraseña débil no
	// quema el token.
	if err := s.checkPolicy(in.NewPassword); err != nil {
		return err
	}
	phc, err := s.Hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	it, err := s.Tokens.Consume(ctx, domain.TokenPasswordReset, in.Token, domain.Transition{PasswordHash: phc})
	if errors.Is(err, onetime.ErrInvalidToken) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	log.Info("password reset", logger.UserID(it.ID))
	return nil
}

func (s *passwordService) Change(ctx context.Context, identityID string, in dto.ChangePasswordRequest) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Change"),
		logger.UserID(identityID),
	)

	if in.CurrentPassword == "" || in.NewPassword == "" {
		return ErrMissingFields
	}
	it, err := s.Identities.GetByID(ctx, identityID)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrSessionInvalid
	}
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}
	if !s.Hasher.Verify(in.CurrentPassword, it.PasswordHash) {
		return ErrWrongPassword
	}
	if err := s.checkPolicy(in.NewPassword); err != nil {
		return err
	}
	phc, err := s.Hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Identities.UpdatePassword(ctx, it.ID, phc); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	log.Info("password changed")
	return nil
}
