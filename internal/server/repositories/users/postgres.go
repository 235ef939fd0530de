package users

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

const userColumns = `id, username, email, email_confirmed, name, password_hash,
	recovery_token, recovery_expires_at, confirm_token, created_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, username, email, email_confirmed, name, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.EmailConfirmed, user.Name, user.PasswordHash).
		Scan(&user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) FindBySocialLogin(ctx context.Context, issuer, uid string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		JOIN user_logins ON user_logins.user_id = users.id
		WHERE user_logins.issuer = $1 AND user_logins.uid = $2
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, issuer, uid))
}

func (r *PostgresRepository) AddSocialLogin(ctx context.Context, login *models.UserLogin) error {
	query := `
		INSERT INTO user_logins (issuer, uid, user_id)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, login.Issuer, login.UID, login.UserID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, userID, username string) error {
	query := `UPDATE users SET username = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, username)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) AddToRole(ctx context.Context, userID, roleName string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, roleName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT roles.name
		FROM roles
		JOIN user_roles ON user_roles.role_id = roles.id
		WHERE user_roles.user_id = $1
		ORDER BY roles.name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}

func (r *PostgresRepository) SetRecoveryToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `UPDATE users SET recovery_token = $2, recovery_expires_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) ClearRecoveryToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET recovery_token = '', recovery_expires_at = NULL WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) SetConfirmToken(ctx context.Context, userID, token string) error {
	query := `UPDATE users SET confirm_token = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

func (r *PostgresRepository) ConfirmEmail(ctx context.Context, userID string) error {
	query := `UPDATE users SET email_confirmed = TRUE, confirm_token = '' WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return oneRowAffected(res)
}

// oneRowAffected maps an UPDATE that touched no rows to ErrorNotFound:
// the WHERE clauses above all target a single user by id.
func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var recoveryExpires sql.NullTime
	err := row.Scan(&user.ID, &user.UserName, &user.Email, &user.EmailConfirmed,
		&user.Name, &user.PasswordHash, &user.RecoveryToken, &recoveryExpires,
		&user.ConfirmToken, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if recoveryExpires.Valid {
		user.RecoveryExpiresAt = recoveryExpires.Time
	}
	return user, nil
}
