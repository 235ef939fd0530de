package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/couchwatch/auth-backend/internal/logging"
	"github.com/couchwatch/auth-backend/internal/server/auth"
)

const shutdownTimeout = 5 * time.Second

// Server runs the REST surface and shuts down gracefully when its context
// is cancelled.
type Server struct {
	address string
	handler *Handler
	minter  *auth.Minter
	logger  logging.Logger
}

func NewServer(address string, handler *Handler, minter *auth.Minter, logger logging.Logger) *Server {
	return &Server{
		address: address,
		handler: handler,
		minter:  minter,
		logger:  logger.With("module", "http_server"),
	}
}

// Routes wires the account endpoints onto a fresh mux. Bearer
// authentication guards log-out and password change.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/accounts/sign-up", s.handler.SignUp)
	mux.HandleFunc("POST /api/v1/accounts/log-in", s.handler.LogIn)
	mux.HandleFunc("POST /api/v1/accounts/log-in/social", s.handler.SocialLogIn)
	mux.HandleFunc("PUT /api/v1/accounts/refresh-token", s.handler.RefreshToken)
	mux.Handle("DELETE /api/v1/accounts/log-out",
		authenticate(s.minter, http.HandlerFunc(s.handler.LogOut)))
	mux.Handle("PUT /api/v1/accounts/password/change",
		authenticate(s.minter, http.HandlerFunc(s.handler.ChangePassword)))
	mux.HandleFunc("POST /api/v1/accounts/password/forgot", s.handler.ForgotPassword)
	mux.HandleFunc("POST /api/v1/accounts/password/reset", s.handler.ResetPassword)
	mux.HandleFunc("POST /api/v1/accounts/confirm-email", s.handler.ConfirmEmail)

	mux.HandleFunc("POST /api/v1/subscriptions/coming-soon", s.handler.ComingSoon)

	return mux
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutting down HTTP server", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
