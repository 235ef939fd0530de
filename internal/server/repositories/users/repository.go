// Package users declares the repository contract for the user store.
package users

import (
	"context"
	"time"

	"github.com/couchwatch/auth-backend/internal/server/models"
)

// Repository defines persistence operations for user records.
// Lookup methods surface absence as common.ErrorNotFound, never as a plain
// error; writers surface duplicate keys as common.ErrorAlreadyExists.
type Repository interface {
	// Create inserts a new user row. The caller supplies the id.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindBySocialLogin resolves a user through a linked identity-provider
	// account.
	FindBySocialLogin(ctx context.Context, issuer, uid string) (*models.User, error)
	AddSocialLogin(ctx context.Context, login *models.UserLogin) error

	// UpdateUsername persists a newly assigned username. The partial unique
	// index on users.username is the real uniqueness guarantee.
	UpdateUsername(ctx context.Context, userID, username string) error

	UpdatePasswordHash(ctx context.Context, userID, hash string) error

	AddToRole(ctx context.Context, userID, roleName string) error
	GetRoles(ctx context.Context, userID string) ([]string, error)

	SetRecoveryToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ClearRecoveryToken(ctx context.Context, userID string) error

	SetConfirmToken(ctx context.Context, userID, token string) error
	ConfirmEmail(ctx context.Context, userID string) error
}
