package email

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/dropDatabas3/credgate/internal/observability/logger"
	mail "github.com/go-mail/mail"
)

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// SMTPConfig agrupa los parámetros de conexión.
type SMTPConfig struct {
	Host               string
	Port               int
	From               string
	Username           string
	Password           string
	TLSMode            string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// NewSMTPSender crea un SMTPSender. TLSMode vacío equivale a "auto".
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	s := &SMTPSender{
		Host:               cfg.Host,
		Port:               cfg.Port,
		From:               cfg.From,
		User:               cfg.Username,
		Pass:               cfg.Password,
		TLSMode:            cfg.TLSMode,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.Timeout,
	}
	if s.TLSMode == "" {
		s.TLSMode = "auto"
	}
	return s
}

func (s *SMTPSender) message(to, subject, htmlBody, textBody string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	// multipart/alternative (txt + html)
	if textBody != "" {
		m.SetBody("text/plain", textBody)
	}
	if htmlBody != "" {
		if textBody == "" {
			m.SetBody("text/html", htmlBody)
		} else {
			m.AddAlternative("text/html", htmlBody)
		}
	}
	return m
}

func (s *SMTPSender) dialer() *mail.Dialer {
	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}
	if s.Timeout > 0 {
		d.Timeout = s.Timeout
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// auto: go-mail negocia STARTTLS si el server lo ofrece
	}
	return d
}

// Send envía un email con contenido HTML y texto plano.
func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	log := logger.L().With(
		logger.Component("SMTPSender"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
	)

	log.Debug("sending email",
		logger.String("subject", subject),
		logger.String("tls_mode", s.TLSMode),
	)

	if err := s.dialer().DialAndSend(s.message(to, subject, htmlBody, textBody)); err != nil {
		diag := DiagnoseSMTP(err)
		log.Error("smtp send failed",
			logger.Err(err),
			logger.String("diag_code", diag.Code),
			logger.Bool("temporary", diag.Temporary),
		)
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	log.Debug("email sent")
	return nil
}
