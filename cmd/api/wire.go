package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/adrayandaleandrew/baring-construction/internal/config"
	"github.com/adrayandaleandrew/baring-construction/internal/httpserver"
	"github.com/adrayandaleandrew/baring-construction/internal/mailer"
	"github.com/adrayandaleandrew/baring-construction/internal/ratelimit"
	"github.com/adrayandaleandrew/baring-construction/internal/store"
)

// ledger is the rate limiter chosen by RATE_LIMIT_BACKEND together with
// its readiness checks and teardown.
type ledger struct {
	limiter ratelimit.Limiter
	ready   map[string]httpserver.Pinger
	close   func()
}

func newLedger(ctx context.Context, cfg config.Config) (ledger, error) {
	policy := ratelimit.Policy{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax}

	switch cfg.RateLimitBackend {
	case config.BackendRedis:
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return ledger{}, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		l := ratelimit.NewRedisLimiter(rdb, policy)
		if err := l.Ping(ctx); err != nil {
			_ = rdb.Close()
			return ledger{}, fmt.Errorf("redis ping: %w", err)
		}
		return ledger{
			limiter: l,
			ready:   map[string]httpserver.Pinger{"redis": l},
			close:   func() { _ = rdb.Close() },
		}, nil

	case config.BackendPostgres:
		// Connect to the shared ledger using a connection pool.
		db, err := store.NewPostgresStore(cfg.DBURL, policy)
		if err != nil {
			return ledger{}, fmt.Errorf("connect postgres: %w", err)
		}
		// Ensure the hits table exists so a fresh database is enough.
		if err := db.EnsureSchema(); err != nil {
			db.Close()
			return ledger{}, fmt.Errorf("ensure schema: %w", err)
		}
		db.StartJanitor(ctx, cfg.JanitorInterval)
		return ledger{
			limiter: db,
			ready:   map[string]httpserver.Pinger{"postgres": db},
			close:   db.Close,
		}, nil

	default:
		l := ratelimit.NewMemoryLimiter(policy, ratelimit.WithSweepThreshold(cfg.SweepThreshold))
		return ledger{limiter: l, close: func() {}}, nil
	}
}

func newTransport(ctx context.Context, cfg config.Config) (mailer.Transport, error) {
	var t mailer.Transport
	switch cfg.EmailProvider {
	case config.ProviderResend:
		t = mailer.NewResendTransport(cfg.ResendAPIKey)
	case config.ProviderGraph:
		t = mailer.NewGraphTransport(ctx, mailer.GraphConfig{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			Sender:       cfg.Graph.Sender,
		})
	case config.ProviderLog:
		slog.Warn("EMAIL_PROVIDER=log: submissions are logged, not emailed")
		t = mailer.LogTransport{}
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
	}
	return mailer.NewThrottle(t, cfg.EmailRatePerSecond, cfg.EmailBurst), nil
}

