package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AttemptLimiter throttles repeated failed sign-ins for one email.
type AttemptLimiter interface {
	// Allow reports whether another attempt may be made for key.
	Allow(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset clears the failure count after a successful attempt.
	Reset(ctx context.Context, key string) error
}

const signinKeyPrefix = "signin:failures:"

// RedisAttemptLimiter counts failures in Redis with a sliding expiry per key.
type RedisAttemptLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewRedisAttemptLimiter returns a limiter. maxAttempts <= 0 disables throttling.
func NewRedisAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *RedisAttemptLimiter {
	return &RedisAttemptLimiter{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

func (l *RedisAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.maxAttempts <= 0 || l.client == nil {
		return true, nil
	}
	count, err := l.client.Get(ctx, signinKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		l.logger.Warn("signin limiter unavailable; allowing attempt", zap.Error(err))
		return true, nil
	}
	return count < l.maxAttempts, nil
}

func (l *RedisAttemptLimiter) Fail(ctx context.Context, key string) error {
	if l.maxAttempts <= 0 || l.client == nil {
		return nil
	}
	redisKey := signinKey(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		l.logger.Warn("signin limiter failed to record attempt", zap.Error(err))
	}
	return nil
}

func (l *RedisAttemptLimiter) Reset(ctx context.Context, key string) error {
	if l.maxAttempts <= 0 || l.client == nil {
		return nil
	}
	if err := l.client.Del(ctx, signinKey(key)).Err(); err != nil {
		l.logger.Warn("signin limiter failed to reset", zap.Error(err))
	}
	return nil
}

func signinKey(email string) string {
	return signinKeyPrefix + strings.TrimSpace(email)
}

// NopAttemptLimiter never throttles.
type NopAttemptLimiter struct{}

func (NopAttemptLimiter) Allow(context.Context, string) (bool, error) { return true, nil }
func (NopAttemptLimiter) Fail(context.Context, string) error         { return nil }
func (NopAttemptLimiter) Reset(context.Context, string) error        { return nil }
