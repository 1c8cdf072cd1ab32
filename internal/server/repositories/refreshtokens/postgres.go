// Package refreshtokens provides a PostgreSQL-backed repository for the
// refresh tokens used in the session lifecycle.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/dbx"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, accountID, tokenHash string, validity time.Duration) (*models.RefreshToken, error) {
	token := &models.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: accountID,
		TokenHash: tokenHash,
		Expires:   time.Now().Add(validity),
	}

	query := `
		INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at, revoked)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.ID, token.AccountID, token.TokenHash, token.Expires,
	).Scan(&token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

func (r *PostgresRepository) FindByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, account_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	token := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID, &token.AccountID, &token.TokenHash,
		&token.Expires, &token.Revoked, &token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Revoke is the compare-and-set at the heart of rotation: the revoked=false
// guard means two racing rotations of the same token see rows-affected
// 1 and 0 respectively, and only the winner may issue a replacement.
func (r *PostgresRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1 AND revoked = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresRepository) RevokeAllForAccount(ctx context.Context, accountID string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE account_id = $1 AND revoked = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < now()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
