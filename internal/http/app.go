// Package http arma el servicio: dependencias, servicios, controllers,
// router y métricas a partir de la configuración.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/credgate/internal/config"
	"github.com/dropDatabas3/credgate/internal/domain"
	"github.com/dropDatabas3/credgate/internal/email"
	adminctrl "github.com/dropDatabas3/credgate/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/credgate/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/credgate/internal/http/controllers/health"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	mw "github.com/dropDatabas3/credgate/internal/http/middlewares"
	"github.com/dropDatabas3/credgate/internal/http/router"
	adminsvc "github.com/dropDatabas3/credgate/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/credgate/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/credgate/internal/http/services/health"
	jwtx "github.com/dropDatabas3/credgate/internal/jwt"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/onetime"
	"github.com/dropDatabas3/credgate/internal/rate"
	"github.com/dropDatabas3/credgate/internal/security/password"
	"github.com/dropDatabas3/credgate/internal/store"
)

// Deps permite inyectar dependencias ya construidas (tests). Los campos
// nil se construyen desde la config.
type Deps struct {
	Identities domain.IdentityRepository
	Notifier   email.Notifier
	Version    string
	Now        func() time.Time
}

// App es el servicio cableado.
type App struct {
	Handler    http.Handler
	Identities domain.IdentityRepository
	Dispatcher *email.Dispatcher
	Metrics    *Metrics
	Issuer     *jwtx.Issuer

	redis *redis.Client
}

// New construye la App a partir de cfg (ya validada).
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	log := logger.From(ctx).With(logger.Component("app"))
	if deps.Now == nil {
		deps.Now = time.Now
	}

	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Shutdown(context.Background())
		}
	}()

	// Store
	a.Identities = deps.Identities
	if a.Identities == nil {
		repo, err := store.Open(ctx, store.ConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Identities = repo
	}

	// Métricas
	mcfg := MetricsConfig{Runtime: true}
	if p, isPG := a.Identities.(interface{ Pool() *pgxpool.Pool }); isPG {
		mcfg.Pool = p.Pool
	}
	metrics, err := NewMetrics(mcfg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	a.Metrics = metrics

	// Sesiones
	a.Issuer, err = jwtx.NewIssuer(jwtx.Config{
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessKey:  []byte(cfg.JWT.AccessSecret),
		RefreshKey: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Leeway:     cfg.JWT.Leeway,
		Now:        deps.Now,
	})
	if err != nil {
		return nil, err
	}

	// Contraseñas
	pw := cfg.Auth.Password
	policy := password.Policy{
		MinLength:     pw.MinLength,
		RequireUpper:  pw.RequireUpper,
		RequireDigit:  pw.RequireDigit,
		RequireSymbol: pw.RequireSymbol,
	}
	if pw.BlacklistPath != "" {
		bl, err := password.LoadBlacklist(pw.BlacklistPath)
		if err != nil {
			return nil, fmt.Errorf("password blacklist: %w", err)
		}
		policy.Blacklist = bl
		log.Info("password blacklist loaded", logger.Int("entries", bl.Len()))
	}
	hasher := password.NewHasher(password.Params{
		Memory:      pw.Argon2.MemoryKiB,
		Time:        pw.Argon2.Iterations,
		Parallelism: pw.Argon2.Parallelism,
		KeyLen:      pw.Argon2.KeyLen,
	})

	// Notificaciones
	notifier := deps.Notifier
	if notifier == nil {
		notifier, err = buildNotifier(cfg)
		if err != nil {
			return nil, err
		}
	}
	a.Dispatcher = email.NewDispatcher(email.DispatcherConfig{
		Workers:   cfg.Email.Workers,
		Timeout:   cfg.Email.SendTimeout,
		OnFailure: metrics.NotificationFailed,
	})

	// Rate limiting
	var authLim, generalLim rate.Limiter
	if cfg.Rate.Enabled {
		authLim, generalLim, err = a.buildLimiters(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	authServices := authsvc.NewServices(authsvc.Deps{
		Identities: a.Identities,
		Hasher:     hasher,
		Policy:     policy,
		Tokens: onetime.NewManager(a.Identities, onetime.Config{
			VerifyWindow: cfg.Auth.VerifyTTL,
			ResetWindow:  cfg.Auth.ResetTTL,
			Now:          deps.Now,
		}),
		Issuer:     a.Issuer,
		Notifier:   notifier,
		Dispatcher: a.Dispatcher,
		Now:        deps.Now,
	})

	a.Handler = router.New(router.Deps{
		Auth: authctrl.NewControllers(authServices, authctrl.Config{
			Cookie: helpers.CookieConfig{
				Name:   cfg.Auth.Cookie.Name,
				Domain: cfg.Auth.Cookie.Domain,
				Path:   cfg.Auth.Cookie.Path,
				Secure: cfg.IsProd(),
			},
		}),
		Admin: adminctrl.NewControllers(adminsvc.NewServices(adminsvc.Deps{Identities: a.Identities})),
		Health: healthctrl.NewControllers(healthsvc.NewServices(healthsvc.Deps{
			Checks:  a.readinessChecks(),
			Version: deps.Version,
		})),
		Gate:           mw.AuthConfig{Issuer: a.Issuer, Identities: a.Identities},
		AuthLimiter:    authLim,
		GeneralLimiter: generalLim,
		TrustProxy:     cfg.Server.TrustProxy,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Observer:       metrics,
		OnRateLimited:  metrics.RateLimited,
		MetricsHandler: metrics.Handler(),
	})

	log.Info("app wired",
		logger.String("store", cfg.Storage.Driver),
		logger.Bool("rate_limit", cfg.Rate.Enabled),
		logger.String("rate_backend", cfg.Rate.Backend),
	)
	ok = true
	return a, nil
}

// buildNotifier usa SMTP si hay host; si no, loguea los links (dev).
func buildNotifier(cfg *config.Config) (email.Notifier, error) {
	verifyURL := strings.TrimRight(cfg.App.BaseURL, "/") + "/verify-email"
	resetURL := strings.TrimRight(cfg.App.FrontendURL, "/") + "/reset-password"

	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		logger.L().Warn("smtp.host not set: emails will be logged, not sent", logger.Component("email"))
		return email.LogNotifier{VerifyURL: verifyURL, ResetURL: resetURL}, nil
	}

	tpl, err := email.LoadTemplates(cfg.Email.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:               cfg.SMTP.Host,
		Port:               cfg.SMTP.Port,
		From:               cfg.SMTP.From,
		Username:           cfg.SMTP.Username,
		Password:           cfg.SMTP.Password,
		TLSMode:            cfg.SMTP.TLSMode,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		Timeout:            cfg.Email.SendTimeout,
	})
	return email.NewMailNotifier(sender, tpl, email.MailConfig{
		VerifyURL: verifyURL,
		ResetURL:  resetURL,
		VerifyTTL: cfg.Auth.VerifyTTL,
		ResetTTL:  cfg.Auth.ResetTTL,
	}), nil
}

func (a *App) buildLimiters(ctx context.Context, cfg *config.Config) (authLim, generalLim rate.Limiter, err error) {
	r := cfg.Rate
	switch strings.ToLower(r.Backend) {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     r.Redis.Addr,
			DB:       r.Redis.DB,
			Password: r.Redis.Password,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// El limiter falla abierto: se arranca igual.
			logger.From(ctx).Warn("redis ping failed", logger.Component("ratelimit"), logger.Err(err))
		}
		authLim = rate.NewRedisLimiter(a.redis, r.Redis.Prefix+"auth:", r.Auth.Limit, r.Auth.Window)
		generalLim = rate.NewRedisLimiter(a.redis, r.Redis.Prefix+"general:", r.General.Limit, r.General.Window)
	case "memory", "":
		authLim = rate.NewMemoryLimiter(r.Auth.Limit, r.Auth.Window, rate.WithMaxKeys(r.MaxKeys))
		generalLim = rate.NewMemoryLimiter(r.General.Limit, r.General.Window, rate.WithMaxKeys(r.MaxKeys))
	default:
		return nil, nil, fmt.Errorf("unknown rate backend %q", r.Backend)
	}
	return authLim, generalLim, nil
}

func (a *App) readinessChecks() map[string]healthsvc.Pinger {
	checks := map[string]healthsvc.Pinger{"store": a.Identities}
	if a.redis != nil {
		checks["redis"] = redisPinger{a.redis}
	}
	return checks
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

// Shutdown drena el dispatcher y cierra store y redis. Idempotente.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Dispatcher != nil {
		if err := a.Dispatcher.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dispatcher: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
		a.redis = nil
	}
	if a.Identities != nil {
		a.Identities.Close()
		a.Identities = nil
	}
	return errors.Join(errs...)
}
