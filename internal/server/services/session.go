package services

import (
	"context"
	"fmt"
	"time"

	"github.com/couchwatch/auth-backend/internal/server/auth"
	"github.com/couchwatch/auth-backend/internal/server/models"
	"github.com/couchwatch/auth-backend/internal/server/repositories/users"
)

// SessionService assembles the session payload returned by every
// authentication entry point: it guarantees the user has a username, mints
// an access token, and creates the accompanying refresh token.
type SessionService struct {
	users    users.Repository
	assigner *UsernameAssigner
	tokens   *RefreshTokenService
	minter   *auth.Minter

	now func() time.Time
}

func NewSessionService(repo users.Repository, assigner *UsernameAssigner, tokens *RefreshTokenService, minter *auth.Minter) *SessionService {
	return &SessionService{
		users:    repo,
		assigner: assigner,
		tokens:   tokens,
		minter:   minter,
		now:      time.Now,
	}
}

// Issue returns a fresh session for user. Side effects: persists a username
// (at most once ever, per user) and inserts exactly one refresh-token
// record. No lock spans the steps; a failure after minting leaves a valid
// short-lived access token with no refresh token, which the caller remedies
// by re-authenticating.
func (s *SessionService) Issue(ctx context.Context, user *models.User) (*models.Session, error) {
	if err := s.assigner.Assign(ctx, user); err != nil {
		return nil, err
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching roles: %w", err)
	}

	now := s.now()

	accessToken, expiry, err := s.minter.Mint(user, roles, now)
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	refreshToken, err := s.tokens.Create(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		UserID:       user.ID,
		Token:        accessToken,
		RefreshToken: refreshToken.ID,
		ExpiryTime:   expiry.Format(time.RFC3339),
		Roles:        roles,
		Name:         user.UserName,
	}, nil
}
