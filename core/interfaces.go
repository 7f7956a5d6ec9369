package core

import (
	"context"
	"net/http"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS
// ============================================

// UserStore resolves users and verifies their credentials. The layer never
// sees password hashes; verification stays behind this port.
type UserStore interface {
	FindUser(ctx context.Context, sel Selector) (*UserRecord, error)
	VerifyCredential(ctx context.Context, user *UserRecord, password Password) (bool, error)
}

// TokenStore persists issued bearer tokens, keyed by their sha-256 hex hash.
type TokenStore interface {
	StoreToken(ctx context.Context, userID, tokenHash string, when time.Time) error
	// FindToken returns the owning user ID, or ErrTokenNotFound.
	FindToken(ctx context.Context, tokenHash string) (string, error)
	DeleteToken(ctx context.Context, tokenHash string) error
	// DeleteUserTokens removes every token for the user and returns the count.
	DeleteUserTokens(ctx context.Context, userID string) (int, error)
}

// ============================================
// RATE LIMIT PORT
// ============================================

// Policy declares a budget of Points per Duration window.
type Policy struct {
	Points   int
	Duration time.Duration
}

// Decision reports the outcome of a rate limit consume.
type Decision struct {
	Allowed    bool
	Remaining  int64
	Limit      int64
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RateLimiter is consulted once per request on rate-limited endpoints.
// Implementations own the atomic increment-and-check semantics; a consume
// error fails the request closed (500), never lets it through.
type RateLimiter interface {
	Consume(ctx context.Context, key string, policy Policy) (*Decision, error)
}

// KeyGenerator derives the rate-limit key for a request. The default uses the
// client address.
type KeyGenerator func(r *http.Request) string

// ============================================
// AUTH HOOKS
// ============================================

// AuthHooks are fire-and-forget side effects around authentication. They
// never influence the response.
type AuthHooks struct {
	OnLoggedIn     func(r *http.Request, userID string)
	OnLoggedOut    func(r *http.Request, userID string)
	OnLoginFailure func(r *http.Request, reason string)
}
