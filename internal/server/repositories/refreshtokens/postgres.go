// Package refreshtokens provides a PostgreSQL-backed repository for the
// refresh tokens used in session continuation.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/dbx"
	"github.com/couchwatch/auth-backend/internal/server/models"
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

func (r *PostgresRepository) Insert(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, generated_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.GeneratedAt, token.ExpiresAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, generated_at, expires_at
		FROM refresh_tokens
		WHERE id = $1
	`
	return r.scanToken(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindValid(ctx context.Context, id string, now time.Time) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, generated_at, expires_at
		FROM refresh_tokens
		WHERE id = $1 AND expires_at > $2
	`
	return r.scanToken(r.db.QueryRowContext(ctx, query, id, now))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) scanToken(row *sql.Row) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	err := row.Scan(&token.ID, &token.UserID, &token.GeneratedAt, &token.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}
