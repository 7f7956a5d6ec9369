package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/restio/restio/core"
)

// CreateUser hashes the credential and inserts the user, assigning an ID when
// none is set.
func (a *Adapter) CreateUser(ctx context.Context, user *core.UserRecord, password core.Password) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	hash, err := a.hasher.Hash(password.CanonicalDigest())
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}

	q := `INSERT INTO public.users (id, username, email, password_hash, roles, scopes) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = a.pool.Exec(ctx, q, user.ID, nullable(user.Username), nullable(user.Email), hash, user.Roles, user.Scopes)
	return err
}

func (a *Adapter) FindUser(ctx context.Context, sel core.Selector) (*core.UserRecord, error) {
	var (
		column string
		value  string
	)
	switch {
	case sel.ID != "":
		column, value = "id", sel.ID
	case sel.Username != "":
		column, value = "username", sel.Username
	case sel.Email != "":
		column, value = "email", sel.Email
	default:
		return nil, core.ErrUserNotFound
	}

	q := fmt.Sprintf(`SELECT id, username, email, roles, scopes FROM public.users WHERE %s = $1`, column)

	user := &core.UserRecord{}
	var username, email *string
	err := a.pool.QueryRow(ctx, q, value).Scan(&user.ID, &username, &email, &user.Roles, &user.Scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	if username != nil {
		user.Username = *username
	}
	if email != nil {
		user.Email = *email
	}
	return user, nil
}

func (a *Adapter) VerifyCredential(ctx context.Context, user *core.UserRecord, password core.Password) (bool, error) {
	q := `SELECT password_hash FROM public.users WHERE id = $1`

	var stored string
	err := a.pool.QueryRow(ctx, q, user.ID).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, core.ErrUserNotFound
		}
		return false, err
	}
	return a.hasher.Verify(password.CanonicalDigest(), stored)
}

// SetPassword replaces the user's credential, invalidating nothing else.
func (a *Adapter) SetPassword(ctx context.Context, userID string, password core.Password) error {
	hash, err := a.hasher.Hash(password.CanonicalDigest())
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}

	tag, err := a.pool.Exec(ctx, `UPDATE public.users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
