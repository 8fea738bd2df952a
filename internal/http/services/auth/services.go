package auth

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/email"
	jwtx "github.com/dropDatabas3/credgate/internal/jwt"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/onetime"
	"github.com/dropDatabas3/credgate/internal/security/password"
)

// Deps contiene las dependencias compartidas por los servicios de auth.
type Deps struct {
	Identities domain.IdentityRepository
	Hasher     *password.Hasher
	Policy     password.Policy
	Tokens     *onetime.Manager
	Issuer     *jwtx.Issuer
	Notifier   email.Notifier
	// Dispatcher ejecuta los envíos best-effort. nil = envío inline.
	Dispatcher *email.Dispatcher
	Now        func() time.Time
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Register     RegisterService
	Login        LoginService
	Verification VerificationService
	Password     PasswordService
	Session      SessionService
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Hasher == nil {
		d.Hasher = password.NewHasher(password.Default)
	}
	if d.Policy.MinLength == 0 {
		d.Policy.MinLength = password.DefaultPolicy.MinLength
	}
	c := &core{Deps: d}
	return Services{
		Register:     &registerService{c},
		Login:        &loginService{c},
		Verification: &verificationService{c},
		Password:     &passwordService{c},
		Session:      &sessionService{c},
	}
}

// core comparte helpers entre servicios.
type core struct {
	Deps

	dummyOnce sync.Once
	dummyHash string
}

// dummy devuelve un hash fijo para igualar el costo del login con email
// inexistente.
func (c *core) dummy() string {
	c.dummyOnce.Do(func() {
		h, err := c.Hasher.Hash("credgate-timing-equalizer")
		if err != nil {
			logger.L().Warn("dummy hash failed", logger.Err(err))
		}
		c.dummyHash = h
	})
	return c.dummyHash
}

// checkPolicy valida la contraseña nueva contra la política.
func (c *core) checkPolicy(pwd string) error {
	if ok, reasons := c.Policy.Validate(pwd); !ok {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}

// notify dispara un envío best-effort. Nunca bloquea ni falla la operación.
func (c *core) notify(ctx context.Context, job string, fn func(context.Context) error) {
	if c.Notifier == nil {
		return
	}
	if c.Dispatcher != nil {
		c.Dispatcher.Submit(ctx, job, fn)
		return
	}
	if err := fn(ctx); err != nil {
		logger.From(ctx).Warn("best-effort notification failed", logger.String("job", job), logger.Err(err))
	}
}

func recipient(it *domain.Identity) email.Recipient {
	return email.Recipient{Email: it.Email, FirstName: it.FirstName}
}
