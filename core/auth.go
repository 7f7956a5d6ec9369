package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/restio/restio/pkg/crypto"
)

// Auth validates credentials against the user-store collaborator and issues
// and validates bearer tokens. Only sha-256 hashes of tokens reach storage.
type Auth struct {
	users  UserStore
	tokens TokenStore
}

func NewAuth(users UserStore, tokens TokenStore) *Auth {
	return &Auth{users: users, tokens: tokens}
}

// LoginWithPassword resolves the user by selector, verifies the password
// (plain or pre-hashed sha-256) and issues a fresh bearer token.
//
// Credential failures return ErrLoginFailed regardless of whether the user
// existed or the password was wrong; the returned AuthToken carries the
// internal reason in Error for the OnLoginFailure hook only.
func (a *Auth) LoginWithPassword(ctx context.Context, sel Selector, password Password) (*AuthToken, error) {
	user, err := a.users.FindUser(ctx, UserQuerySelector(sel))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return &AuthToken{Error: "unknown user"}, ErrLoginFailed
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := a.users.VerifyCredential(ctx, user, password)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return &AuthToken{Error: "invalid password"}, ErrLoginFailed
	}

	pair, err := crypto.GenerateHashedToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := time.Now()
	if err := a.tokens.StoreToken(ctx, user.ID, pair.Hash, now); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &AuthToken{Token: pair.Token, UserID: user.ID, When: now}, nil
}

// AuthenticateToken resolves a raw bearer token to its user record.
func (a *Auth) AuthenticateToken(ctx context.Context, token string) (*UserRecord, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	userID, err := a.tokens.FindToken(ctx, crypto.HashToken(token))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	user, err := a.users.FindUser(ctx, Selector{ID: userID})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Logout invalidates the presented token.
func (a *Auth) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	return a.tokens.DeleteToken(ctx, crypto.HashToken(token))
}

// LogoutAll invalidates every token of the user and returns the count.
func (a *Auth) LogoutAll(ctx context.Context, userID string) (int, error) {
	return a.tokens.DeleteUserTokens(ctx, userID)
}

// UserQuerySelector normalizes a selector to a single lookup field:
// ID, then username, then email.
func UserQuerySelector(sel Selector) Selector {
	switch {
	case sel.ID != "":
		return Selector{ID: sel.ID}
	case sel.Username != "":
		return Selector{Username: sel.Username}
	default:
		return Selector{Email: sel.Email}
	}
}

// ExtractUser destructures login body params into a selector. Fails fast when
// neither username nor email is present.
func ExtractUser(body BodyParams) (Selector, error) {
	if body.Username == "" && body.Email == "" {
		return Selector{}, ErrIdentifierRequired
	}
	return Selector{Username: body.Username, Email: body.Email}, nil
}

// ExtractPassword destructures the password, plain or pre-hashed. Pre-hashed
// passwords accept only sha-256.
func ExtractPassword(body BodyParams) (Password, error) {
	if body.Password == "" {
		return Password{}, ErrPasswordRequired
	}
	if !body.Hashed {
		return Password{Plain: body.Password}, nil
	}
	algo := body.Algorithm
	if algo == "" {
		algo = hashAlgoSHA256
	}
	if !strings.EqualFold(algo, hashAlgoSHA256) {
		return Password{}, ErrUnsupportedHashAlgo
	}
	return Password{Digest: body.Password, Algorithm: hashAlgoSHA256}, nil
}

// BearerToken extracts the credential from an Authorization: Bearer header.
// This is the default token extractor.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
