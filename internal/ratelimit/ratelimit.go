// Package ratelimit implements the per-client sliding-window submission
// limit shared by the contact and quote endpoints.
//
// The in-memory ledger is the default and is local to one process. The
// Redis ledger (and the Postgres ledger in internal/store) implement the
// same Limiter contract for deployments that run more than one instance.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a client has used up its allowance.
// A true result means the submission must be rejected.
type Limiter interface {
	Check(ctx context.Context, clientID string) (limited bool, err error)
}

// Policy is the sliding-window allowance: at most Max submissions within
// any trailing Window.
type Policy struct {
	Window time.Duration
	Max    int
}

// DefaultPolicy allows three submissions per minute.
var DefaultPolicy = Policy{Window: time.Minute, Max: 3}

// DefaultSweepThreshold is the key count above which the memory ledger
// sweeps stale clients.
const DefaultSweepThreshold = 1000

type options struct {
	now            func() time.Time
	sweepThreshold int
	keyPrefix      string
}

type Option func(*options)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithSweepThreshold sets the key count that triggers a sweep of the
// memory ledger.
func WithSweepThreshold(n int) Option {
	return func(o *options) { o.sweepThreshold = n }
}

// WithKeyPrefix namespaces Redis keys.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

func buildOptions(opts []Option) options {
	o := options{
		now:            time.Now,
		sweepThreshold: DefaultSweepThreshold,
		keyPrefix:      "ratelimit:submissions:",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// inWindow keeps the timestamps strictly younger than window.
func inWindow(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	recent := hits[:0]
	for _, t := range hits {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}
	return recent
}
