// Package ratelimit provides the interchangeable rate limiter backends
// consulted by the request pipeline: in-process token buckets and a
// Redis-backed fixed window for multi-instance deployments.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/restio/restio/core"
)

const (
	cleanupInterval = 5 * time.Minute
	staleThreshold  = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is an in-process core.RateLimiter: one token bucket per (key,
// policy) pair. Cleanup of stale buckets happens inline during Consume.
type Memory struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	lastCleanup time.Time
}

var _ core.RateLimiter = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		buckets:     make(map[string]*bucket),
		lastCleanup: time.Now(),
	}
}

// Consume takes one point from the key's budget under the given policy.
func (m *Memory) Consume(_ context.Context, key string, policy core.Policy) (*core.Decision, error) {
	if policy.Points <= 0 || policy.Duration <= 0 {
		return nil, fmt.Errorf("invalid rate limit policy: %d points per %s", policy.Points, policy.Duration)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if now.Sub(m.lastCleanup) > cleanupInterval {
		for k, b := range m.buckets {
			if now.Sub(b.lastSeen) > staleThreshold {
				delete(m.buckets, k)
			}
		}
		m.lastCleanup = now
	}

	id := fmt.Sprintf("%d:%d:%s", policy.Points, int(policy.Duration.Seconds()), key)
	b, ok := m.buckets[id]
	if !ok {
		limit := rate.Limit(float64(policy.Points) / policy.Duration.Seconds())
		b = &bucket{limiter: rate.NewLimiter(limit, policy.Points)}
		m.buckets[id] = b
	}
	b.lastSeen = now

	decision := &core.Decision{Limit: int64(policy.Points)}
	if b.limiter.Allow() {
		decision.Allowed = true
		decision.Remaining = int64(b.limiter.Tokens())
		return decision, nil
	}

	// Exhausted: next token arrives after one refill interval.
	refill := time.Duration(float64(policy.Duration) / float64(policy.Points))
	decision.Remaining = 0
	decision.RetryAfter = refill
	decision.ResetAfter = policy.Duration
	return decision, nil
}
