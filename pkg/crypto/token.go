// Package crypto provides the credential primitives the REST layer leans on:
// bearer token pairs (raw value to the client, sha-256 hex at rest) and
// argon2id password hashing over client-side sha-256 digests.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const tokenBytes = 32 // 256 bits

// TokenPair couples the raw bearer token handed to a client with the hash
// kept in storage. The raw value is never persisted.
type TokenPair struct {
	Token string
	Hash  string
}

// GenerateHashedToken mints a fresh random bearer token and its storage hash.
func GenerateHashedToken() (*TokenPair, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return &TokenPair{Token: token, Hash: HashToken(token)}, nil
}

// HashToken returns the lowercase hex sha-256 digest of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken reports whether token hashes to storedHash, in constant time.
func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, errors.New("token and hash cannot be empty")
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(storedHash)) == 1, nil
}
