package core

import (
	"errors"
	"fmt"
)

// Authentication errors
var (
	ErrLoginFailed   = errors.New("login failed") // 401, deliberately opaque
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("token not found")        // 401
	ErrMissingToken  = errors.New("missing auth token")     // 401
	ErrRoleDenied    = errors.New("required role missing")  // 403
	ErrScopeDenied   = errors.New("required scope missing") // 403
)

// Credential validation errors (client input)
var (
	ErrIdentifierRequired  = errors.New("username or email is required")                         // 400
	ErrPasswordRequired    = errors.New("password is required")                                  // 400
	ErrDigestRequired      = errors.New("hashed password digest is required")                    // 400
	ErrUnsupportedHashAlgo = errors.New("unsupported password hash algorithm, expected sha-256") // 400
)

// Route configuration errors (registration time)
var (
	ErrUnknownMethod   = errors.New("unknown HTTP method")
	ErrNilAction       = errors.New("endpoint action is required")
	ErrDuplicateMethod = errors.New("duplicate endpoint method")
	ErrNoEndpoints     = errors.New("route declares no endpoints")
	ErrEmptyPath       = errors.New("route path is required")
)

// Config errors (server-side configuration)
var (
	ErrRouterRequired     = errors.New("router is required")
	ErrVersionRequired    = errors.New("api version is required unless IsRoot is set")
	ErrUserStoreRequired  = errors.New("user store is required for default auth endpoints")
	ErrTokenStoreRequired = errors.New("token store is required for default auth endpoints")
	ErrLimiterRequired    = errors.New("rate limiter is required when a rate limit is declared")
)

// ParseError marks a malformed JSON request body. The router maps it to 400.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed JSON body: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StatusCoder lets an error carry its own HTTP status through the execute
// stage. Errors without one become an opaque 500.
type StatusCoder interface {
	StatusCode() int
}

// StatusError is the plain implementation of StatusCoder for actions that
// want to fail with a specific status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string   { return e.Message }
func (e *StatusError) StatusCode() int { return e.Code }
