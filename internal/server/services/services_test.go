package services

import (
	"context"
	"time"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/server/models"
)

// --- shared fakes ---

// constReader feeds an endless stream of one byte value, making every
// generated candidate identical.
type constReader struct{ b byte }

func (r constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
	}
	return len(p), nil
}

type fakeUsersRepo struct {
	CreateFn            func(ctx context.Context, u *models.User) (*models.User, error)
	FindByIDFn          func(ctx context.Context, id string) (*models.User, error)
	FindByEmailFn       func(ctx context.Context, email string) (*models.User, error)
	FindByUsernameFn    func(ctx context.Context, username string) (*models.User, error)
	FindBySocialLoginFn func(ctx context.Context, issuer, uid string) (*models.User, error)
	AddSocialLoginFn    func(ctx context.Context, login *models.UserLogin) error
	UpdateUsernameFn    func(ctx context.Context, userID, username string) error
	UpdatePasswordFn    func(ctx context.Context, userID, hash string) error
	AddToRoleFn         func(ctx context.Context, userID, roleName string) error
	GetRolesFn          func(ctx context.Context, userID string) ([]string, error)
	SetRecoveryFn       func(ctx context.Context, userID, token string, expiresAt time.Time) error
	ClearRecoveryFn     func(ctx context.Context, userID string) error
	SetConfirmFn        func(ctx context.Context, userID, token string) error
	ConfirmEmailFn      func(ctx context.Context, userID string) error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return f.CreateFn(ctx, u)
}
func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return f.FindByIDFn(ctx, id)
}
func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.FindByEmailFn(ctx, email)
}
func (f *fakeUsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.FindByUsernameFn(ctx, username)
}
func (f *fakeUsersRepo) FindBySocialLogin(ctx context.Context, issuer, uid string) (*models.User, error) {
	return f.FindBySocialLoginFn(ctx, issuer, uid)
}
func (f *fakeUsersRepo) AddSocialLogin(ctx context.Context, login *models.UserLogin) error {
	return f.AddSocialLoginFn(ctx, login)
}
func (f *fakeUsersRepo) UpdateUsername(ctx context.Context, userID, username string) error {
	return f.UpdateUsernameFn(ctx, userID, username)
}
func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	return f.UpdatePasswordFn(ctx, userID, hash)
}
func (f *fakeUsersRepo) AddToRole(ctx context.Context, userID, roleName string) error {
	return f.AddToRoleFn(ctx, userID, roleName)
}
func (f *fakeUsersRepo) GetRoles(ctx context.Context, userID string) ([]string, error) {
	return f.GetRolesFn(ctx, userID)
}
func (f *fakeUsersRepo) SetRecoveryToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return f.SetRecoveryFn(ctx, userID, token, expiresAt)
}
func (f *fakeUsersRepo) ClearRecoveryToken(ctx context.Context, userID string) error {
	return f.ClearRecoveryFn(ctx, userID)
}
func (f *fakeUsersRepo) SetConfirmToken(ctx context.Context, userID, token string) error {
	return f.SetConfirmFn(ctx, userID, token)
}
func (f *fakeUsersRepo) ConfirmEmail(ctx context.Context, userID string) error {
	return f.ConfirmEmailFn(ctx, userID)
}

// notFoundUsersRepo behaves like an empty store for username lookups and
// accepts every username update.
func notFoundUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		FindByUsernameFn: func(ctx context.Context, username string) (*models.User, error) {
			return nil, common.ErrorNotFound
		},
		UpdateUsernameFn: func(ctx context.Context, userID, username string) error {
			return nil
		},
	}
}

type fakeRefreshRepo struct {
	InsertFn    func(ctx context.Context, token *models.RefreshToken) error
	GetByIDFn   func(ctx context.Context, id string) (*models.RefreshToken, error)
	FindValidFn func(ctx context.Context, id string, now time.Time) (*models.RefreshToken, error)
	DeleteFn    func(ctx context.Context, id string) error
}

func (f *fakeRefreshRepo) Insert(ctx context.Context, token *models.RefreshToken) error {
	return f.InsertFn(ctx, token)
}
func (f *fakeRefreshRepo) GetByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeRefreshRepo) FindValid(ctx context.Context, id string, now time.Time) (*models.RefreshToken, error) {
	return f.FindValidFn(ctx, id, now)
}
func (f *fakeRefreshRepo) Delete(ctx context.Context, id string) error {
	return f.DeleteFn(ctx, id)
}

// emptyRefreshRepo behaves like an empty store: every id is free, every
// insert succeeds.
func emptyRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{
		GetByIDFn: func(ctx context.Context, id string) (*models.RefreshToken, error) {
			return nil, common.ErrorNotFound
		},
		InsertFn: func(ctx context.Context, token *models.RefreshToken) error {
			return nil
		},
	}
}

type fakeSubscriptionsRepo struct {
	InsertFn      func(ctx context.Context, sub *models.Subscription) error
	FindByEmailFn func(ctx context.Context, email string) (*models.Subscription, error)
}

func (f *fakeSubscriptionsRepo) Insert(ctx context.Context, sub *models.Subscription) error {
	return f.InsertFn(ctx, sub)
}
func (f *fakeSubscriptionsRepo) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	return f.FindByEmailFn(ctx, email)
}

type fakeMailer struct {
	confirmations []string
	resets        []string
	changed       []string
	err           error
}

func (m *fakeMailer) SendConfirmation(ctx context.Context, to, name, token string) error {
	m.confirmations = append(m.confirmations, to)
	return m.err
}
func (m *fakeMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	m.resets = append(m.resets, to)
	return m.err
}
func (m *fakeMailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	m.changed = append(m.changed, to)
	return m.err
}
