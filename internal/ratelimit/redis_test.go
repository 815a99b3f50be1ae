package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisLimiter connects to REDIS_URL and skips when it is not set.
func redisLimiter(t *testing.T, opts ...Option) *RedisLimiter {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	opts = append(opts, WithKeyPrefix("test:"+uuid.NewString()+":"))
	l := NewRedisLimiter(rdb, DefaultPolicy, opts...)
	if err := l.Ping(context.Background()); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	return l
}

func TestRedisLimiter_AllowsThreeThenLimits(t *testing.T) {
	l := redisLimiter(t)

	for i := 1; i <= 3; i++ {
		if mustCheck(t, l, "1.2.3.4") {
			t.Fatalf("request %d should not be limited", i)
		}
	}
	if !mustCheck(t, l, "1.2.3.4") {
		t.Fatalf("4th request should be limited")
	}
	if mustCheck(t, l, "1.2.3.40") {
		t.Fatalf("1.2.3.40 must not share 1.2.3.4's history")
	}
}

func TestRedisLimiter_AdmitsAgainAfterWindow(t *testing.T) {
	clock := newFakeClock()
	clock.now = time.Now()
	l := redisLimiter(t, WithClock(clock.Now))

	for i := 0; i < 4; i++ {
		mustCheck(t, l, "10.0.0.1")
	}
	clock.Advance(time.Minute + time.Millisecond)
	if mustCheck(t, l, "10.0.0.1") {
		t.Fatalf("expected admission after the window elapsed")
	}
}
