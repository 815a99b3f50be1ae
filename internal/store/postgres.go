package store

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adrayandaleandrew/baring-construction/internal/ratelimit"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore is a rate-limit ledger shared by every instance that
// points at the same database. It stores hit timestamps only; submissions
// themselves are never persisted.
type PostgresStore struct {
	pool   *pgxpool.Pool
	policy ratelimit.Policy
	now    func() time.Time
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(dbURL string, policy ratelimit.Policy) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, policy: policy, now: time.Now}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema() error {
	_, err := p.pool.Exec(context.Background(), schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Check implements ratelimit.Limiter.
//
// Expired hits for the client are deleted first, then the remaining ones
// are counted. Prune, count and insert are separate statements, so two
// concurrent requests at the limit may both be admitted.
func (p *PostgresStore) Check(ctx context.Context, clientID string) (bool, error) {
	if clientID == "" {
		return false, errors.New("clientID required")
	}

	now := p.now().UTC()
	cutoff := now.Add(-p.policy.Window)

	if _, err := p.pool.Exec(ctx, `
		DELETE FROM rate_limit_hits
		WHERE client_id = $1
		  AND hit_at <= $2
	`, clientID, cutoff); err != nil {
		return false, err
	}

	var count int64
	if err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM rate_limit_hits
		WHERE client_id = $1
	`, clientID).Scan(&count); err != nil {
		return false, err
	}

	if count >= int64(p.policy.Max) {
		return true, nil
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO rate_limit_hits(client_id, hit_at)
		VALUES ($1, $2)
	`, clientID, now)
	return false, err
}

// Sweep deletes every hit that has left the window and returns how many
// rows were removed.
func (p *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	cutoff := p.now().UTC().Add(-p.policy.Window)
	tag, err := p.pool.Exec(ctx, `DELETE FROM rate_limit_hits WHERE hit_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// StartJanitor sweeps expired hits every interval until ctx is done.
func (p *PostgresStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := p.Sweep(ctx)
				if err != nil {
					slog.Warn("rate limit sweep failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Debug("rate limit sweep", "deleted", n)
				}
			}
		}
	}()
}
