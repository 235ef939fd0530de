// Package http exposes the account entry points as a JSON REST surface.
// Successful responses are wrapped in {"data": ...}, failures in
// {"errors": [...]}.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/couchwatch/auth-backend/internal/logging"
	"github.com/couchwatch/auth-backend/internal/server/models"
)

// Accounts is the slice of the account service the handlers consume.
// *services.AccountService satisfies it.
type Accounts interface {
	Register(ctx context.Context, email, password, name string) (*models.Session, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	SocialLogin(ctx context.Context, issuer, uid, email string) (*models.Session, error)
	Refresh(ctx context.Context, userID, tokenID string) (*models.Session, error)
	Logout(ctx context.Context, userID, tokenID string)
	ChangePassword(ctx context.Context, userID, current, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
	ConfirmEmail(ctx context.Context, email, token string) error
}

// Subscriptions records coming-soon interest.
// *services.SubscriptionService satisfies it.
type Subscriptions interface {
	Subscribe(ctx context.Context, email, service string) bool
}

// Handler carries the account and subscription endpoints.
type Handler struct {
	accounts      Accounts
	subscriptions Subscriptions
	logger        logging.Logger
}

func NewHandler(accounts Accounts, subscriptions Subscriptions, logger logging.Logger) *Handler {
	return &Handler{
		accounts:      accounts,
		subscriptions: subscriptions,
		logger:        logger.With("module", "http"),
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type logInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialLogInRequest struct {
	Issuer string `json:"issuer"`
	UID    string `json:"uid"`
	Email  string `json:"email"`
}

type refreshRequest struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
}

type logOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type confirmEmailRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type comingSoonRequest struct {
	Email   string `json:"email"`
	Service string `json:"service"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.fail(w, r, "sign-up", err)
		return
	}
	writeData(w, http.StatusCreated, session)
}

func (h *Handler) LogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.accounts.Login(r.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		h.fail(w, r, "log-in", err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (h *Handler) SocialLogIn(w http.ResponseWriter, r *http.Request) {
	var req socialLogInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Issuer == "" || req.UID == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "issuer, uid and email are required")
		return
	}

	session, err := h.accounts.SocialLogin(r.Context(), req.Issuer, req.UID, normalizeEmail(req.Email))
	if err != nil {
		h.fail(w, r, "social log-in", err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.accounts.Refresh(r.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		h.fail(w, r, "refresh-token", err)
		return
	}
	writeData(w, http.StatusOK, session)
}

func (h *Handler) LogOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	// A missing or undecodable body still logs the caller out; the token
	// removal is best-effort by contract.
	var req logOutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.accounts.Logout(r.Context(), userID, req.RefreshToken)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, "password change", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accounts.ForgotPassword(r.Context(), normalizeEmail(req.Email)); err != nil {
		h.fail(w, r, "password forgot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), normalizeEmail(req.Email), req.Token, req.NewPassword); err != nil {
		h.fail(w, r, "password reset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req confirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accounts.ConfirmEmail(r.Context(), normalizeEmail(req.Email), req.Token); err != nil {
		h.fail(w, r, "confirm email", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ComingSoon records pre-launch interest. A repeat address is acknowledged
// with the same success envelope as a fresh one; only an unusable request
// body is an error.
func (h *Handler) ComingSoon(w http.ResponseWriter, r *http.Request) {
	var req comingSoonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if h.subscriptions.Subscribe(r.Context(), req.Email, req.Service) {
		writeData(w, http.StatusOK, "Thanks, we will be in touch.")
		return
	}
	writeData(w, http.StatusOK, "Email received, we will be in touch.")
}

// fail converts a service error into the error envelope. Server faults are
// logged with detail and answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), op+" failed", "error", err.Error())
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
