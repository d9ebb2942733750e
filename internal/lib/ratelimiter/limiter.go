package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/ratelimit"
)

var ErrTooManyAttempts = errors.New("too many failed attempts")

// RateLimiter throttles sign-in attempts per client. Attempt counters and
// block flags live in redis so every instance sees the same state; the uber
// limiter additionally paces bursts inside one process.
type RateLimiter struct {
	RedisClient *redis.Client
	UberLimiter ratelimit.Limiter
	MaxAttempts int
	BlockTime   time.Duration
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		RedisClient: client,
		UberLimiter: ratelimit.New(3, ratelimit.Per(time.Minute)),
		MaxAttempts: 10,
		BlockTime:   time.Hour,
	}
}

// CheckAndIncrementAttempts bumps the attempt counter for clientKey and
// blocks the client once the limit is exceeded.
func (r *RateLimiter) CheckAndIncrementAttempts(ctx context.Context, clientKey string) error {
	key := fmt.Sprintf("auth_attempts:%s", clientKey)

	attempts, err := r.RedisClient.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		attempts = 0
	} else if err != nil {
		return fmt.Errorf("failed to get attempts: %w", err)
	}

	attempts++
	if attempts >= r.MaxAttempts {
		if err := r.Block(ctx, clientKey); err != nil {
			return err
		}
		return ErrTooManyAttempts
	}

	if err := r.RedisClient.Set(ctx, key, attempts, time.Minute*10).Err(); err != nil {
		return fmt.Errorf("failed to set attempts: %w", err)
	}

	return nil
}

func (r *RateLimiter) Block(ctx context.Context, clientKey string) error {
	blockKey := fmt.Sprintf("blocked_client:%s", clientKey)
	return r.RedisClient.Set(ctx, blockKey, "blocked", r.BlockTime).Err()
}

func (r *RateLimiter) IsBlocked(ctx context.Context, clientKey string) bool {
	blockKey := fmt.Sprintf("blocked_client:%s", clientKey)
	_, err := r.RedisClient.Get(ctx, blockKey).Result()
	return !errors.Is(err, redis.Nil)
}

func (r *RateLimiter) ResetAttempts(ctx context.Context, clientKey string) error {
	key := fmt.Sprintf("auth_attempts:%s", clientKey)
	return r.RedisClient.Del(ctx, key).Err()
}
