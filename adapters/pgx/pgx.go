// Package pgx implements the user and token stores on a PostgreSQL pool.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id            TEXT PRIMARY KEY,
//	    username      TEXT UNIQUE,
//	    email         TEXT UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    roles         TEXT[] NOT NULL DEFAULT '{}',
//	    scopes        TEXT[] NOT NULL DEFAULT '{}'
//	);
//
//	CREATE TABLE auth_tokens (
//	    token_hash TEXT PRIMARY KEY,
//	    user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/restio/restio/core"
	"github.com/restio/restio/pkg/crypto"
)

// Adapter backs core.UserStore and core.TokenStore with pgx. Credentials at
// rest are argon2id hashes of the client-side sha-256 digest, so plain and
// pre-hashed logins verify identically.
type Adapter struct {
	pool   *pgxpool.Pool
	hasher crypto.PasswordHandler
}

var (
	_ core.UserStore  = (*Adapter)(nil)
	_ core.TokenStore = (*Adapter)(nil)
)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool:   pool,
		hasher: crypto.NewArgon2(),
	}
}
