// Package refreshtokens declares the repository contract for the
// refresh-token store.
package refreshtokens

import (
	"context"
	"time"

	"github.com/couchwatch/auth-backend/internal/server/models"
)

// Repository defines operations for persisting and revoking refresh tokens.
// The store enforces token-id uniqueness via the primary key; Insert surfaces
// a duplicate id as common.ErrorAlreadyExists so callers can retry with a
// fresh candidate.
type Repository interface {
	// Insert stores a new refresh-token record.
	Insert(ctx context.Context, token *models.RefreshToken) error

	// GetByID looks up a record by token id regardless of expiry.
	// Absent records surface as common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.RefreshToken, error)

	// FindValid looks up a record whose id matches and whose expiry is
	// strictly after now. Expired rows are filtered here, never swept.
	FindValid(ctx context.Context, id string, now time.Time) (*models.RefreshToken, error)

	// Delete removes a record by token id. Deleting a non-existent token is
	// not an error.
	Delete(ctx context.Context, id string) error
}
