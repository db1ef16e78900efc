package client

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type LoginLimiter interface {
	// Allow counts one attempt for key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

func InitRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

type redisLoginLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewLoginLimiter returns a fixed-window limiter. A nil client disables limiting.
func NewLoginLimiter(rdb *redis.Client, limit int64, window time.Duration) LoginLimiter {
	if rdb == nil {
		return noopLimiter{}
	}
	return &redisLoginLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

func (l *redisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, "rl:login:"+key)
	pipe.ExpireNX(ctx, "rl:login:"+key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis rate limit: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

func (l *redisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, "rl:login:"+key).Err()
}

type noopLimiter struct{}

func (noopLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (noopLimiter) Reset(context.Context, string) error         { return nil }
