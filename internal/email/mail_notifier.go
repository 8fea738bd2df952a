package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

// MailConfig configura MailNotifier.
type MailConfig struct {
	AppName string
	// VerifyURL recibe ?token=... (normalmente BaseURL + "/verify-email").
	VerifyURL string
	// ResetURL es la pantalla del frontend que completa el reset.
	ResetURL  string
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// MailNotifier renderiza templates y los entrega vía Sender.
type MailNotifier struct {
	sender Sender
	tpl    *Templates
	cfg    MailConfig
}

func NewMailNotifier(sender Sender, tpl *Templates, cfg MailConfig) *MailNotifier {
	if cfg.AppName == "" {
		cfg.AppName = "credgate"
	}
	return &MailNotifier{sender: sender, tpl: tpl, cfg: cfg}
}

func (n *MailNotifier) SendVerification(ctx context.Context, to Recipient, token string) error {
	if token == "" {
		return ErrInvalidInput
	}
	return n.send(ctx, "SendVerification", TemplateVerify, "Verify your email", to, Vars{
		Link: withToken(n.cfg.VerifyURL, token),
		TTL:  formatDuration(n.cfg.VerifyTTL),
	})
}

func (n *MailNotifier) SendPasswordReset(ctx context.Context, to Recipient, token string) error {
	if token == "" {
		return ErrInvalidInput
	}
	return n.send(ctx, "SendPasswordReset", TemplateReset, "Reset your password", to, Vars{
		Link: withToken(n.cfg.ResetURL, token),
		TTL:  formatDuration(n.cfg.ResetTTL),
	})
}

func (n *MailNotifier) SendWelcome(ctx context.Context, to Recipient) error {
	return n.send(ctx, "SendWelcome", TemplateWelcome, "Welcome to "+n.cfg.AppName, to, Vars{})
}

func (n *MailNotifier) send(ctx context.Context, op, tpl, subject string, to Recipient, v Vars) error {
	log := logger.From(ctx).With(logger.Component("email"), logger.Op(op))

	if strings.TrimSpace(to.Email) == "" {
		return ErrInvalidInput
	}
	// El transporte no acepta ctx; no arrancamos un envío ya vencido.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	v.AppName = n.cfg.AppName
	v.FirstName = to.FirstName
	v.Email = to.Email
	htmlBody, textBody, err := n.tpl.Render(tpl, v)
	if err != nil {
		log.Error("failed to render template", logger.Err(err))
		return err
	}

	if err := n.sender.Send(to.Email, subject, htmlBody, textBody); err != nil {
		log.Warn("notification not delivered", logger.Err(err))
		return err
	}
	log.Info("notification sent")
	return nil
}

// withToken agrega token=... a la query respetando parámetros existentes.
func withToken(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
