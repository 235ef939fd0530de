package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/randx"
	"github.com/couchwatch/auth-backend/internal/server/models"
	"github.com/couchwatch/auth-backend/internal/server/repositories/refreshtokens"
)

const (
	// RefreshTokenLength is the length of the opaque token identifier.
	RefreshTokenLength = 96

	maxTokenIDAttempts = 10
)

// RefreshTokenService owns the refresh-token lifecycle: collision-free
// creation, single-use redemption, and best-effort invalidation. Expired
// rows are filtered at lookup and never swept here.
type RefreshTokenService struct {
	tokens   refreshtokens.Repository
	rand     *randx.Source
	validity time.Duration
}

func NewRefreshTokenService(repo refreshtokens.Repository, rand *randx.Source, validity time.Duration) *RefreshTokenService {
	return &RefreshTokenService{tokens: repo, rand: rand, validity: validity}
}

// Create persists a new refresh token for userID expiring at now+validity.
// The identifier is regenerated until it is globally unique; the store's
// primary key backs the pre-check, so an insert that loses a concurrent
// race is retried rather than failed.
func (s *RefreshTokenService) Create(ctx context.Context, userID string, now time.Time) (*models.RefreshToken, error) {
	for attempt := 1; attempt <= maxTokenIDAttempts; attempt++ {
		id, err := s.rand.Token(RefreshTokenLength)
		if err != nil {
			return nil, fmt.Errorf("generating refresh token id: %w", err)
		}

		_, err = s.tokens.GetByID(ctx, id)
		if err == nil {
			continue // collision
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("checking refresh token id: %w", err)
		}

		token := &models.RefreshToken{
			ID:          id,
			UserID:      userID,
			GeneratedAt: now,
			ExpiresAt:   now.Add(s.validity),
		}
		err = s.tokens.Insert(ctx, token)
		if errors.Is(err, common.ErrorAlreadyExists) {
			continue // lost a concurrent race, pick a new id
		}
		if err != nil {
			return nil, fmt.Errorf("persisting refresh token: %w", err)
		}
		return token, nil
	}

	return nil, fmt.Errorf("refresh token id generation exhausted after %d attempts: %w",
		maxTokenIDAttempts, common.ErrorInternal)
}

// Redeem consumes a refresh token: a record matching id with expiry strictly
// after now is deleted and returned. An unknown token yields
// common.ErrInvalidToken, a known-but-expired one
// common.ErrRefreshTokenExpired. Deletion happens before the caller mints a
// replacement, so a crash in between can never leave two live tokens for
// one logical session.
func (s *RefreshTokenService) Redeem(ctx context.Context, id string, now time.Time) (*models.RefreshToken, error) {
	token, err := s.tokens.FindValid(ctx, id, now)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.missReason(ctx, id)
		}
		return nil, fmt.Errorf("searching refresh token: %w", err)
	}

	if err := s.tokens.Delete(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("consuming refresh token: %w", err)
	}
	return token, nil
}

// missReason tells an expired token apart from one that never existed.
// The distinction only affects the reported error; both are unusable.
func (s *RefreshTokenService) missReason(ctx context.Context, id string) error {
	if _, err := s.tokens.GetByID(ctx, id); err == nil {
		return common.ErrRefreshTokenExpired
	}
	return common.ErrInvalidToken
}

// Invalidate removes a refresh token if it exists. Logout calls this
// best-effort; an unknown token is not an error.
func (s *RefreshTokenService) Invalidate(ctx context.Context, id string) error {
	return s.tokens.Delete(ctx, id)
}
