// Package email models the outbound-mail collaborator. Delivery itself is
// owned by an external service; this backend only decides what to send.
package email

import (
	"context"

	"github.com/couchwatch/auth-backend/internal/logging"
)

// Mailer dispatches the account-lifecycle messages.
type Mailer interface {
	// SendConfirmation asks the user to confirm their address with token.
	SendConfirmation(ctx context.Context, to, name, token string) error

	// SendPasswordReset carries a recovery token for the forgot-password flow.
	SendPasswordReset(ctx context.Context, to, name, token string) error

	// SendPasswordChanged notifies the user after a successful reset.
	SendPasswordChanged(ctx context.Context, to, name string) error
}

// LogMailer writes outbound messages to the structured log instead of
// delivering them. It is the default wiring for environments without a mail
// relay.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to, name, token string) error {
	m.logger.Info(ctx, "confirmation email", "to", to, "name", name, "token", token)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	m.logger.Info(ctx, "password reset email", "to", to, "name", name, "token", token)
	return nil
}

func (m *LogMailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	m.logger.Info(ctx, "password changed email", "to", to, "name", name)
	return nil
}
