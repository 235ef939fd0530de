// Package subscriptions declares the repository contract for the
// coming-soon interest store.
package subscriptions

import (
	"context"

	"github.com/couchwatch/auth-backend/internal/server/models"
)

// Repository persists pre-launch interest records. The email column is the
// primary key; Insert surfaces a duplicate as common.ErrorAlreadyExists.
type Repository interface {
	// Insert stores a new interest record.
	Insert(ctx context.Context, sub *models.Subscription) error

	// FindByEmail looks up a record by address. Absence surfaces as
	// common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.Subscription, error)
}
