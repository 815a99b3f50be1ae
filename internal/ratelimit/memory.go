package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps each client's recent submission times in process
// memory. Keys are compared exactly; "1.2.3.4" and "1.2.3.40" never share
// history.
type MemoryLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	policy Policy
	opts   options
}

func NewMemoryLimiter(policy Policy, opts ...Option) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   make(map[string][]time.Time),
		policy: policy,
		opts:   buildOptions(opts),
	}
}

// Check never fails; the error is always nil.
func (l *MemoryLimiter) Check(_ context.Context, clientID string) (bool, error) {
	now := l.opts.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := inWindow(l.hits[clientID], now, l.policy.Window)
	if len(recent) >= l.policy.Max {
		l.hits[clientID] = recent
		return true, nil
	}

	l.hits[clientID] = append(recent, now)

	if len(l.hits) > l.opts.sweepThreshold {
		l.sweep(now)
	}
	return false, nil
}

// sweep prunes every key and drops the ones with nothing left in the
// window. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, times := range l.hits {
		active := inWindow(times, now, l.policy.Window)
		if len(active) == 0 {
			delete(l.hits, k)
			continue
		}
		l.hits[k] = active
	}
}

// Len reports how many clients the ledger currently holds.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hits)
}

// Reset clears all state.
func (l *MemoryLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits = make(map[string][]time.Time)
}
