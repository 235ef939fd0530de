package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/dbx"
	"github.com/couchwatch/auth-backend/internal/logging"
	"github.com/couchwatch/auth-backend/internal/randx"
	"github.com/couchwatch/auth-backend/internal/server/email"
	"github.com/couchwatch/auth-backend/internal/server/models"
	"github.com/couchwatch/auth-backend/internal/server/repositories/repomanager"
	"github.com/couchwatch/auth-backend/internal/server/repositories/users"
)

const bcryptCost = 12

// AccountService implements the account entry points: registration,
// credential and social login, session refresh, logout, and the password
// recovery and email confirmation flows. Every successful authentication
// funnels into SessionService.Issue.
type AccountService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	sessions *SessionService
	tokens   *RefreshTokenService
	mailer   email.Mailer
	rand     *randx.Source
	logger   logging.Logger

	recoveryValidity time.Duration
	now              func() time.Time
}

func NewAccountService(
	db *sql.DB,
	repos repomanager.RepositoryManager,
	sessions *SessionService,
	tokens *RefreshTokenService,
	mailer email.Mailer,
	rand *randx.Source,
	logger logging.Logger,
	recoveryValidity time.Duration,
) *AccountService {
	return &AccountService{
		db:               db,
		repos:            repos,
		sessions:         sessions,
		tokens:           tokens,
		mailer:           mailer,
		rand:             rand,
		logger:           logger.With("module", "accounts"),
		recoveryValidity: recoveryValidity,
		now:              time.Now,
	}
}

// Register creates a new account for the email and returns its first
// session. A previously registered email yields common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, emailAddr, password, name string) (*models.Session, error) {
	repo := s.repos.Users(s.db)

	if _, err := repo.FindByEmail(ctx, emailAddr); err == nil {
		return nil, common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		Name:         name,
		PasswordHash: string(hash),
	}

	// The row and its default role grant land together or not at all.
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		txRepo := s.repos.Users(tx)
		if _, err := txRepo.Create(ctx, user); err != nil {
			return err
		}
		return txRepo.AddToRole(ctx, user.ID, models.RoleUser)
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.sendConfirmation(ctx, repo, user)

	return s.sessions.Issue(ctx, user)
}

// Login verifies the email/password pair and returns a session. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, emailAddr, password string) (*models.Session, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.sessions.Issue(ctx, user)
}

// SocialLogin resolves the user through a linked identity-provider account,
// falling back to the verified email, creating the account when neither
// exists. The provider link is recorded best-effort.
func (s *AccountService) SocialLogin(ctx context.Context, issuer, uid, emailAddr string) (*models.Session, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.FindBySocialLogin(ctx, issuer, uid)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("finding social login: %w", err)
	}

	if user == nil {
		user, err = repo.FindByEmail(ctx, emailAddr)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("finding user: %w", err)
		}

		if user == nil {
			// The provider vouches for the address.
			user = &models.User{
				ID:             uuid.NewString(),
				Email:          emailAddr,
				EmailConfirmed: true,
			}
			if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				txRepo := s.repos.Users(tx)
				if _, err := txRepo.Create(ctx, user); err != nil {
					return err
				}
				return txRepo.AddToRole(ctx, user.ID, models.RoleUser)
			}); err != nil {
				return nil, fmt.Errorf("creating user: %w", err)
			}
		}

		login := &models.UserLogin{Issuer: issuer, UID: uid, UserID: user.ID}
		if err := repo.AddSocialLogin(ctx, login); err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Error(ctx, "adding social login", "issuer", issuer, "error", err.Error())
		}
	}

	return s.sessions.Issue(ctx, user)
}

// Refresh redeems a refresh token for userID and issues a fresh session.
// An unknown user yields common.ErrorNotFound, an unknown token
// common.ErrInvalidToken, an expired one common.ErrRefreshTokenExpired.
// The consumed token is deleted before the replacement is minted.
func (s *AccountService) Refresh(ctx context.Context, userID, tokenID string) (*models.Session, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if _, err := s.tokens.Redeem(ctx, tokenID, s.now()); err != nil {
		return nil, err
	}

	return s.sessions.Issue(ctx, user)
}

// Logout invalidates the presented refresh token best-effort: it succeeds
// whether or not the token still exists. Store failures are logged, not
// surfaced.
func (s *AccountService) Logout(ctx context.Context, userID, tokenID string) {
	if err := s.tokens.Invalidate(ctx, tokenID); err != nil {
		s.logger.Error(ctx, "invalidating refresh token on logout", "user_id", userID, "error", err.Error())
	}
}

// ChangePassword verifies the current password and stores the new one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return common.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// ForgotPassword generates a recovery token for the account and mails it.
func (s *AccountService) ForgotPassword(ctx context.Context, emailAddr string) error {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}

	token, err := s.rand.Hex(24)
	if err != nil {
		return fmt.Errorf("generating recovery token: %w", err)
	}
	if err := repo.SetRecoveryToken(ctx, user.ID, token, s.now().Add(s.recoveryValidity)); err != nil {
		return fmt.Errorf("storing recovery token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
		return fmt.Errorf("sending recovery email: %w", err)
	}
	return nil
}

// ResetPassword completes the recovery flow: the presented token must match
// the stored one and still be inside its validity window.
func (s *AccountService) ResetPassword(ctx context.Context, emailAddr, token, newPassword string) error {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}

	if user.RecoveryToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RecoveryToken), []byte(token)) != 1 ||
		s.now().After(user.RecoveryExpiresAt) {
		return common.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if err := repo.ClearRecoveryToken(ctx, user.ID); err != nil {
		return fmt.Errorf("clearing recovery token: %w", err)
	}

	if err := s.mailer.SendPasswordChanged(ctx, user.Email, user.Name); err != nil {
		s.logger.Error(ctx, "sending password changed email", "error", err.Error())
	}
	return nil
}

// ConfirmEmail flags the account confirmed when token matches the stored
// confirmation token.
func (s *AccountService) ConfirmEmail(ctx context.Context, emailAddr, token string) error {
	repo := s.repos.Users(s.db)

	user, err := repo.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("finding user: %w", err)
	}

	if user.ConfirmToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.ConfirmToken), []byte(token)) != 1 {
		return common.ErrValidation
	}

	if err := repo.ConfirmEmail(ctx, user.ID); err != nil {
		return fmt.Errorf("confirming email: %w", err)
	}
	return nil
}

// sendConfirmation stores a confirmation token and mails it. Registration
// does not fail when the mail cannot be prepared or dispatched.
func (s *AccountService) sendConfirmation(ctx context.Context, repo users.Repository, user *models.User) {
	token, err := s.rand.Hex(24)
	if err != nil {
		s.logger.Error(ctx, "generating confirmation token", "error", err.Error())
		return
	}
	if err := repo.SetConfirmToken(ctx, user.ID, token); err != nil {
		s.logger.Error(ctx, "storing confirmation token", "error", err.Error())
		return
	}
	if err := s.mailer.SendConfirmation(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Error(ctx, "sending confirmation email", "error", err.Error())
	}
}
