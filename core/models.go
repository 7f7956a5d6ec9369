package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// UserRecord represents an authenticated principal.
//
// Roles are coarse-grained labels ("admin"), scopes finer-grained
// ("orders:read"). Both use OR semantics during authorization.
type UserRecord struct {
	ID       string   `json:"id"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *UserRecord) HasAnyRole(roles []string) bool {
	for _, want := range roles {
		for _, have := range u.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HasAnyScope reports whether the user holds at least one of the given scopes.
func (u *UserRecord) HasAnyScope(scopes []string) bool {
	for _, want := range scopes {
		for _, have := range u.Scopes {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Selector identifies a user for lookup. Exactly one field is set.
type Selector struct {
	ID       string
	Username string
	Email    string
}

// AuthToken is the result of a successful login. Token is the raw bearer
// token; only its sha-256 hash is kept at rest.
//
// Error carries the internal failure reason for the OnLoginFailure hook and
// logs. It never serializes: failed logins answer 401 with an opaque body.
type AuthToken struct {
	Token  string    `json:"authToken"`
	UserID string    `json:"userId"`
	When   time.Time `json:"when"`
	Error  string    `json:"-"`
}

// BodyParams is the request body accepted by the login endpoint.
//
// Password is either the plain password or, when Hashed is set, a lowercase
// hex sha-256 digest computed client side.
type BodyParams struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password"`
	Hashed    bool   `json:"hashed,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
}

const hashAlgoSHA256 = "sha-256"

// Password is a credential presented for verification, plain or pre-hashed.
type Password struct {
	Plain     string
	Digest    string
	Algorithm string
}

// CanonicalDigest returns the lowercase hex sha-256 digest of the credential,
// regardless of whether it arrived plain or pre-hashed. Stores verify against
// this value so both forms authenticate identically.
func (p Password) CanonicalDigest() string {
	if p.Plain != "" {
		sum := sha256.Sum256([]byte(p.Plain))
		return hex.EncodeToString(sum[:])
	}
	return strings.ToLower(p.Digest)
}
