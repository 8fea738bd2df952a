package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// RedisLimiter: fixed window con INCR + PEXPIRE en el primer hit.
type RedisLimiter struct {
	Client rdb.Cmdable
	Prefix string
	Max    int64
	Window time.Duration
}

func NewRedisLimiter(client rdb.Cmdable, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := l.Prefix + strings.ReplaceAll(key, " ", "_")

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate: redis incr: %w", err)
	}

	ttl := pttl.Val()
	// Primer hit de la ventana, o clave sin expiración (EXPIRE perdido).
	if incr.Val() == 1 || ttl < 0 {
		if err := l.Client.PExpire(ctx, redisKey, l.Window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate: redis pexpire: %w", err)
		}
		ttl = l.Window
	}
	return decide(incr.Val(), l.Max, ttl), nil
}
