package repomanager

import (
	"context"
	"database/sql"

	"github.com/couchwatch/auth-backend/internal/dbx"
	"github.com/couchwatch/auth-backend/internal/server/repositories/refreshtokens"
	"github.com/couchwatch/auth-backend/internal/server/repositories/subscriptions"
	"github.com/couchwatch/auth-backend/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
}
