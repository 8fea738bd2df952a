// Package rate implementa límites fixed-window por clave de cliente.
//
// La ventana arranca con el primer request de la clave y se reinicia cuando
// vence; no es sliding window. MemoryLimiter sirve para un solo proceso;
// RedisLimiter comparte los contadores entre instancias.
package rate

import (
	"context"
	"errors"
	"time"
)

// ErrCapacity indica que el limiter en memoria alcanzó su máximo de claves.
var ErrCapacity = errors.New("rate: limiter at capacity")

type Result struct {
	Allowed     bool
	Limit       int64
	Remaining   int64
	RetryAfter  time.Duration // > 0 solo si !Allowed
	WindowTTL   time.Duration // tiempo restante de la ventana actual
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// decide arma el Result a partir del contador y el tiempo restante.
func decide(hits, max int64, ttl time.Duration) Result {
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= max,
		Limit:       max,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = time.Second
		}
	}
	return res
}
