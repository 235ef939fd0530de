package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/logging"
	"github.com/couchwatch/auth-backend/internal/server/models"
	"github.com/couchwatch/auth-backend/internal/server/repositories/repomanager"
)

// SubscriptionService records pre-launch interest from the coming-soon
// page. The capture is deliberately forgiving: a store failure must never
// bounce a visitor who handed over their address.
type SubscriptionService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewSubscriptionService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *SubscriptionService {
	return &SubscriptionService{
		db:     db,
		repos:  repos,
		logger: logger.With("module", "subscriptions"),
	}
}

// Subscribe records the address and reports whether it was already known.
// Insert failures, including a duplicate slipping past the pre-check, are
// logged and swallowed.
func (s *SubscriptionService) Subscribe(ctx context.Context, emailAddr, service string) bool {
	repo := s.repos.Subscriptions(s.db)

	if _, err := repo.FindByEmail(ctx, emailAddr); err == nil {
		return true
	} else if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "checking subscription", "error", err.Error())
	}

	sub := &models.Subscription{Email: emailAddr, Service: service}
	if err := repo.Insert(ctx, sub); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return true
		}
		s.logger.Error(ctx, "recording coming-soon subscription", "error", err.Error())
	}
	return false
}
