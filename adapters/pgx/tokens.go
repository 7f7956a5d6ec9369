package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/restio/restio/core"
)

func (a *Adapter) StoreToken(ctx context.Context, userID, tokenHash string, when time.Time) error {
	q := `INSERT INTO public.auth_tokens (token_hash, user_id, created_at) VALUES ($1, $2, $3)`
	_, err := a.pool.Exec(ctx, q, tokenHash, userID, when)
	return err
}

func (a *Adapter) FindToken(ctx context.Context, tokenHash string) (string, error) {
	q := `SELECT user_id FROM public.auth_tokens WHERE token_hash = $1`

	var userID string
	err := a.pool.QueryRow(ctx, q, tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", core.ErrTokenNotFound
		}
		return "", err
	}
	return userID, nil
}

func (a *Adapter) DeleteToken(ctx context.Context, tokenHash string) error {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.auth_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTokenNotFound
	}
	return nil
}

func (a *Adapter) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM public.auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
