package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/restio/restio/core"
)

// Requirement: nonsensical policies are rejected before any store round trip.
func TestRedisConsumeRejectsInvalidPolicy(t *testing.T) {
	limiter := NewRedis(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")

	for _, policy := range []core.Policy{
		{Points: 0, Duration: time.Minute},
		{Points: 5, Duration: 0},
	} {
		if _, err := limiter.Consume(context.Background(), "k", policy); err == nil {
			t.Errorf("policy %+v accepted, want error", policy)
		}
	}
}

// Requirement: an unreachable store surfaces as an error so the caller fails
// the request closed instead of waving it through.
func TestRedisConsumeSurfacesBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:1", // nothing listens here
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	limiter := NewRedis(client, "test")

	_, err := limiter.Consume(context.Background(), "k", core.Policy{Points: 5, Duration: time.Minute})
	if err == nil {
		t.Fatal("expected an error from the unreachable store")
	}
}
