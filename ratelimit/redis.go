package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/restio/restio/core"
)

// Redis is a core.RateLimiter backed by a shared Redis store, for API
// deployments where per-process counters would undercount. Fixed window:
// INCR the window key, set its expiry on first hit, compare to the budget.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ core.RateLimiter = (*Redis)(nil)

func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Redis{client: client, prefix: prefix}
}

// Consume takes one point from the key's budget under the given policy.
// Errors propagate so the pipeline fails the request closed.
func (r *Redis) Consume(ctx context.Context, key string, policy core.Policy) (*core.Decision, error) {
	if policy.Points <= 0 || policy.Duration <= 0 {
		return nil, fmt.Errorf("invalid rate limit policy: %d points per %s", policy.Points, policy.Duration)
	}

	window := fmt.Sprintf("%s:%s:%d:%d", r.prefix, key, policy.Points, int(policy.Duration.Seconds()))

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, window)
	pipe.ExpireNX(ctx, window, policy.Duration)
	ttl := pipe.PTTL(ctx, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit consume: %w", err)
	}

	count := incr.Val()
	resetAfter := ttl.Val()
	if resetAfter < 0 {
		resetAfter = policy.Duration
	}

	decision := &core.Decision{
		Limit:      int64(policy.Points),
		Remaining:  int64(policy.Points) - count,
		ResetAfter: resetAfter,
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if count <= int64(policy.Points) {
		decision.Allowed = true
		return decision, nil
	}
	decision.RetryAfter = resetAfter
	return decision, nil
}
