package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Insert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (email, service)
		VALUES ($1, $2)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, sub.Email, sub.Service).Scan(&sub.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	query := `SELECT email, service, created_at FROM subscriptions WHERE email = $1`

	sub := &models.Subscription{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&sub.Email, &sub.Service, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return sub, nil
}
