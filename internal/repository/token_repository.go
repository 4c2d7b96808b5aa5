package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/presenter-booking/internal/model"
)

// TokenRepo stores refresh tokens by their SHA-256 hash.  A token is live
// while revoked_at is NULL and expires_at lies in the future.
type TokenRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db, now: time.Now} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time, persistent bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at, persistent) VALUES (?, ?, ?, ?)`,
		userID, tokenHash, exp.UTC(), persistent)
	return translate(err)
}

// ValidateRefresh returns a live token.  Unknown, revoked and expired
// tokens are all ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	t := model.RefreshToken{TokenHash: tokenHash}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, persistent, created_at FROM refresh_tokens
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		tokenHash, r.now().UTC()).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.Persistent, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, err
}

// RevokeByHash revokes a live token.  It returns ErrNotFound when no row
// changed, which is how a second concurrent rotation of the same token
// loses.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	res, err := r.revoke(ctx, `token_hash = ?`, tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAllForUser ends every session of the user, used by sign-out
// without a specific token.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.revoke(ctx, `user_id = ?`, userID)
	return err
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) (sql.Result, error) {
	return r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE revoked_at IS NULL AND `+where,
		r.now().UTC(), arg)
}
