package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists the three token kinds of the auth component: hashed
// refresh tokens with revocation, and the emailed activation and password
// reset tokens which are stored verbatim and deleted on use or expiry.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// ----- refresh tokens -----

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns userID if a non-revoked, non-expired token exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		return 0, sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes all user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// ----- activation tokens -----

// StoreActivation inserts an activation token for a freshly registered user.
func (r *TokenRepo) StoreActivation(ctx context.Context, userID uint64, token string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO activation_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, exp)
	return err
}

// ConsumeActivation looks up the token for the user with the given email.
// A matching but expired row is deleted and sql.ErrNoRows returned, so a
// stale link cannot be retried.  On success the row is deleted and the
// user ID returned.
func (r *TokenRepo) ConsumeActivation(ctx context.Context, email, token string) (uint64, error) {
	var (
		id        uint64
		userID    uint64
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT at.id, at.user_id, at.expires_at
		 FROM activation_tokens at
		 JOIN users u ON u.id = at.user_id
		 WHERE u.email=? AND at.token=? LIMIT 1`,
		email, token).Scan(&id, &userID, &expiresAt)
	if err != nil {
		return 0, err
	}
	if time.Now().UTC().After(expiresAt) {
		_, _ = r.DB.ExecContext(ctx, "DELETE FROM activation_tokens WHERE id=?", id)
		return 0, sql.ErrNoRows
	}
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM activation_tokens WHERE id=?", id); err != nil {
		return 0, err
	}
	return userID, nil
}

// DeleteExpiredActivation removes all activation tokens past their expiry
// and returns the number of rows swept.  Called by the periodic cleanup.
func (r *TokenRepo) DeleteExpiredActivation(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM activation_tokens WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ----- password reset tokens -----

// ReplaceReset invalidates any previous reset token for the user and
// stores the new one.
func (r *TokenRepo) ReplaceReset(ctx context.Context, userID uint64, token string, exp time.Time) error {
	if _, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE user_id=?", userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, exp)
	return err
}

// ConsumeReset validates and deletes the reset token for the user.  Wrong
// or expired tokens cause the stored row to be deleted too, matching the
// one-shot semantics of emailed reset links.
func (r *TokenRepo) ConsumeReset(ctx context.Context, userID uint64, token string) error {
	var (
		id        uint64
		stored    string
		expiresAt time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, expires_at FROM password_reset_tokens WHERE user_id=? LIMIT 1",
		userID).Scan(&id, &stored, &expiresAt)
	if err != nil {
		return err
	}
	if stored != token || time.Now().UTC().After(expiresAt) {
		_, _ = r.DB.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE id=?", id)
		return sql.ErrNoRows
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM password_reset_tokens WHERE id=?", id)
	return err
}

// DeleteExpiredReset removes expired password reset tokens.
func (r *TokenRepo) DeleteExpiredReset(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_reset_tokens WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
