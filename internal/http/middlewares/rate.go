package middlewares

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/dropDatabas3/credgate/internal/http/errors"
	"github.com/dropDatabas3/credgate/internal/http/helpers"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
	"github.com/dropDatabas3/credgate/internal/rate"
)

// RateLimitConfig configura el middleware de rate limiting.
type RateLimitConfig struct {
	Limiter rate.Limiter
	// Group separa contadores por familia de rutas ("auth", "general").
	Group string
	// TrustProxy habilita X-Forwarded-For / X-Real-IP para la IP del cliente.
	TrustProxy bool
	// OnReject se invoca en cada 429 (métricas).
	OnReject func(group string)
	Now      func() time.Time
}

// WithRateLimit aplica fixed-window por (grupo, IP). Si el backend falla
// deja pasar el request y registra un warning.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := helpers.ClientIP(r, cfg.TrustProxy)
			key := cfg.Group + ":" + ip

			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				log := logger.From(r.Context()).With(logger.Component("ratelimit"), logger.String("group", cfg.Group))
				if errors.Is(err, rate.ErrCapacity) {
					log.Warn("rate limiter at capacity, allowing request")
				} else {
					log.Warn("rate limiter unavailable, allowing request", logger.Err(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(cfg.Now().Add(res.WindowTTL).Unix(), 10))

			if !res.Allowed {
				h.Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
				logger.From(r.Context()).Info("rate limited",
					logger.Component("ratelimit"),
					logger.String("group", cfg.Group),
					logger.ClientIP(ip),
					logger.RetryAfter(res.RetryAfter),
				)
				if cfg.OnReject != nil {
					cfg.OnReject(cfg.Group)
				}
				httperrors.WriteError(w, r, httperrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds redondea hacia arriba, mínimo 1.
func retryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}
