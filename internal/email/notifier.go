package email

import (
	"context"
	"errors"
)

var (
	ErrSendFailed     = errors.New("email: send failed")
	ErrTemplateRender = errors.New("email: template render failed")
	ErrInvalidInput   = errors.New("email: invalid input")
)

// Recipient es el destinatario de una notificación.
type Recipient struct {
	Email     string
	FirstName string
}

// Notifier envía los mensajes del ciclo de credenciales.
// token es siempre el valor en claro; nunca se persiste.
type Notifier interface {
	SendVerification(ctx context.Context, to Recipient, token string) error
	SendPasswordReset(ctx context.Context, to Recipient, token string) error
	SendWelcome(ctx context.Context, to Recipient) error
}

// Sender es el transporte. El destinatario recibe ambas versiones como
// multipart/alternative.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}
