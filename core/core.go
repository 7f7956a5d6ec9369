package core

import (
	"log/slog"
	"net/http"
)

// AuthConfig wires credential handling for one API instance.
type AuthConfig struct {
	// TokenExtractor pulls the bearer credential from a request.
	// Defaults to the Authorization: Bearer header.
	TokenExtractor func(r *http.Request) string

	// TokenHeader names a header whose raw value is the credential, for
	// clients that send e.g. X-Auth-Token instead of Authorization.
	// TokenExtractor wins when both are set.
	TokenHeader string

	// Hooks observe login/logout outcomes. They never affect responses.
	Hooks AuthHooks

	// DisableDefaultEndpoints skips the login/logout/logout-all bootstrap
	// even when user and token stores are configured.
	DisableDefaultEndpoints bool
}

// RateLimitConfig wires the shared limiter for one API instance. Memory- and
// Redis-backed limiters are interchangeable here; selection is configuration,
// not code path.
type RateLimitConfig struct {
	Limiter      RateLimiter
	KeyGenerator KeyGenerator

	// Default applies to the built-in login endpoint, the usual brute-force
	// target. Route and endpoint declarations are separate.
	Default *Policy
}

// Config describes one versioned API root. Unknown concerns have no home
// here on purpose: the struct is the whole configuration surface.
type Config struct {
	APIRoot string // root of the API, e.g. "api"; defaults to "api"
	APIPath string // additional path after the version
	Version string // e.g. "v1"; required unless IsRoot
	IsRoot  bool   // instance represents the bare API root

	PrettyJSON     bool
	EnableCORS     bool
	DefaultHeaders map[string]string

	// DefaultOptionsEndpoint serves OPTIONS on routes that do not declare
	// their own. Set automatically when EnableCORS is on.
	DefaultOptionsEndpoint func() *EndpointOptions

	// GoneVersions lists retired version prefixes answered with 410.
	GoneVersions []string

	Auth      AuthConfig
	RateLimit RateLimitConfig

	// Users and Tokens enable authentication and the default auth endpoints.
	Users  UserStore
	Tokens TokenStore

	Logger *slog.Logger
}
