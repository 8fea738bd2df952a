package rate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type window struct {
	hits    int64
	resetAt time.Time
}

// MemoryLimiter guarda las ventanas en go-cache. El janitor de go-cache
// descarta las ventanas vencidas; MaxKeys acota la memoria.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows *gocache.Cache
	max     int64
	window  time.Duration
	maxKeys int
	now     func() time.Time
}

type MemoryOption func(*MemoryLimiter)

// WithMaxKeys limita la cantidad de clientes distintos en memoria. 0 = sin límite.
func WithMaxKeys(n int) MemoryOption {
	return func(l *MemoryLimiter) { l.maxKeys = n }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) { l.now = now }
}

func NewMemoryLimiter(max int, window time.Duration, opts ...MemoryOption) *MemoryLimiter {
	l := &MemoryLimiter{
		windows: gocache.New(window, window),
		max:     int64(max),
		window:  window,
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if v, ok := l.windows.Get(key); ok {
		w := v.(*window)
		if now.Before(w.resetAt) {
			w.hits++
			return decide(w.hits, l.max, w.resetAt.Sub(now)), nil
		}
	} else if l.maxKeys > 0 && l.windows.ItemCount() >= l.maxKeys {
		l.windows.DeleteExpired()
		if l.windows.ItemCount() >= l.maxKeys {
			return Result{}, ErrCapacity
		}
	}

	w := &window{hits: 1, resetAt: now.Add(l.window)}
	l.windows.Set(key, w, l.window)
	return decide(w.hits, l.max, l.window), nil
}

// Len devuelve la cantidad de ventanas vivas o pendientes de barrido.
func (l *MemoryLimiter) Len() int {
	return l.windows.ItemCount()
}
