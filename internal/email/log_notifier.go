package email

import (
	"context"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// LogNotifier escribe los links en el log en lugar de enviarlos.
// Se usa en dev cuando no hay smtp.host configurado.
type LogNotifier struct {
	VerifyURL string
	ResetURL  string
}

func (n LogNotifier) SendVerification(ctx context.Context, to Recipient, token string) error {
	logger.From(ctx).Info("verification link (dev)",
		logger.Email(to.Email),
		logger.String("link", withToken(n.VerifyURL, token)),
	)
	return nil
}

func (n LogNotifier) SendPasswordReset(ctx context.Context, to Recipient, token string) error {
	logger.From(ctx).Info("password reset link (dev)",
		logger.Email(to.Email),
		logger.String("link", withToken(n.ResetURL, token)),
	)
	return nil
}

func (n LogNotifier) SendWelcome(ctx context.Context, to Recipient) error {
	logger.From(ctx).Info("welcome email (dev)", logger.Email(to.Email))
	return nil
}
