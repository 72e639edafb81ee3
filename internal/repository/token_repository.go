package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tembiapo/tembiapo-backend/internal/domain"
	"github.com/tembiapo/tembiapo-backend/pkg/database"
)

// tokenRepository implements TokenRepository interface.
//
// Writes that change which token is active for a user lock the user row
// first, so logins and rotations for the same user are serialized and at
// most one token per user is active after each commit.
type tokenRepository struct {
	db *database.Postgres
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.Postgres) TokenRepository {
	return &tokenRepository{db: db}
}

func lockUser(ctx context.Context, tx *sql.Tx, userID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func revokeActive(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND NOT revoked`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke active tokens: %w", err)
	}
	return nil
}

func insertToken(ctx context.Context, tx *sql.Tx, token *domain.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.Revoked,
		token.CreatedAt,
	)
	if err != nil {
		return mapUniqueViolation("failed to create token", err)
	}
	return nil
}

// Replace revokes the user's active tokens and stores token in one transaction
func (r *tokenRepository) Replace(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, token.UserID); err != nil {
			return err
		}
		if err := revokeActive(ctx, tx, token.UserID); err != nil {
			return err
		}
		return insertToken(ctx, tx, token)
	})
}

// Rotate swaps the token identified by oldHash for next. The old row is
// re-checked under lock, so of two concurrent rotations of the same token
// only one succeeds; the other gets ErrTokenInactive.
func (r *tokenRepository) Rotate(ctx context.Context, oldHash string, next *domain.RefreshToken) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var userID string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM refresh_tokens WHERE token_hash = $1`, oldHash).Scan(&userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("token with hash not found: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to get token owner: %w", err)
		}

		// User row first, then token rows: same lock order as Replace.
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var revoked bool
		var expiresAt time.Time
		err = tx.QueryRowContext(ctx,
			`SELECT revoked, expires_at FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`, oldHash).
			Scan(&revoked, &expiresAt)
		if err != nil {
			// Deleted by the sweeper after a concurrent rotation revoked it.
			if errors.Is(err, sql.ErrNoRows) {
				return ErrTokenInactive
			}
			return fmt.Errorf("failed to lock token: %w", err)
		}

		if revoked || !time.Now().Before(expiresAt) {
			return ErrTokenInactive
		}

		if err := revokeActive(ctx, tx, userID); err != nil {
			return err
		}

		next.UserID = userID
		return insertToken(ctx, tx, next)
	})
}

// GetByTokenHash retrieves a refresh token by its hash
func (r *tokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	token := &domain.RefreshToken{}

	err := r.db.DB.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.Revoked,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token with hash not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token by hash: %w", err)
	}

	return token, nil
}

// RevokeByTokenHash marks a token revoked. Unknown or already revoked
// tokens are not an error.
func (r *tokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1 AND NOT revoked`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// DeleteRevokedOrExpired deletes every revoked or expired refresh token
func (r *tokenRepository) DeleteRevokedOrExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.DB.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE revoked OR expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale tokens: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
