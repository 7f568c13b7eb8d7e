package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter shares limits across replicas with SET NX EX. When Redis is
// unreachable it falls back to an in-process limiter so a Redis outage
// never removes the limit entirely.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	window   time.Duration
	fallback Limiter
	logger   *zap.Logger

	warnedUnavailable atomic.Bool
}

// NewRedisClient connects to Redis and verifies it with a ping
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisLimiter creates a distributed limiter. prefix namespaces the keys
// (for example "support:contact").
func NewRedisLimiter(client *redis.Client, prefix string, window time.Duration, fallback Limiter, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		window:   window,
		fallback: fallback,
		logger:   logger,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := l.prefix + ":" + NormalizeKey(key)

	ok, err := l.client.SetNX(ctx, redisKey, time.Now().UTC().Format(time.RFC3339), l.window).Result()
	if err != nil {
		return l.degrade(ctx, key, err)
	}
	if ok {
		l.warnedUnavailable.Store(false)
		return Decision{Allowed: true}, nil
	}

	ttl, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = l.window
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

func (l *RedisLimiter) degrade(ctx context.Context, key string, cause error) (Decision, error) {
	if l.warnedUnavailable.CompareAndSwap(false, true) {
		l.logger.Warn("Redis unavailable, using in-process rate limiter", zap.Error(cause))
	}
	if l.fallback == nil {
		return Decision{}, fmt.Errorf("redis rate limiter unavailable: %w", cause)
	}
	return l.fallback.Allow(ctx, key)
}
