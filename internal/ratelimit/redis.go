package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter stores each client's hits in a sorted set scored by Unix
// milliseconds, so every instance behind a load balancer sees the same
// history. The prune/count and the insert run as two pipelines; two
// concurrent requests at the boundary may both be admitted.
type RedisLimiter struct {
	rdb    *redis.Client
	policy Policy
	opts   options
}

func NewRedisLimiter(rdb *redis.Client, policy Policy, opts ...Option) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		policy: policy,
		opts:   buildOptions(opts),
	}
}

func (l *RedisLimiter) Check(ctx context.Context, clientID string) (bool, error) {
	key := l.opts.keyPrefix + clientID
	now := l.opts.now()
	cutoff := now.Add(-l.policy.Window).UnixMilli()

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis limiter prune: %w", err)
	}

	if card.Val() >= int64(l.policy.Max) {
		return true, nil
	}

	pipe = l.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
	// Idle clients expire on their own; no sweep needed.
	pipe.PExpire(ctx, key, l.policy.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis limiter record: %w", err)
	}
	return false, nil
}

// Ping checks the Redis connection.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return l.rdb.Ping(ctx).Err()
}
