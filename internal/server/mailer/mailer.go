// Package mailer defines the outbound notification contract used by the
// account flows. All sends are best-effort: the caller logs failures and
// never propagates them, so a broken mail pipeline cannot block
// registration or password recovery.
package mailer

import (
	"context"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/logging"
)

// Mailer sends account-lifecycle notifications.
type Mailer interface {
	// SendVerification delivers the email-verification token.
	SendVerification(ctx context.Context, email, token string) error

	// SendRecoveryCode delivers the 6-digit password recovery code.
	SendRecoveryCode(ctx context.Context, email, code string) error

	// SendPasswordChanged notifies the owner that the password changed.
	SendPasswordChanged(ctx context.Context, email string) error
}

// LogMailer is a development implementation that writes the would-be
// messages to the structured log instead of delivering them.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, email, token string) error {
	m.logger.Info(ctx, "verification mail", "email", email, "token", token)
	return nil
}

func (m *LogMailer) SendRecoveryCode(ctx context.Context, email, code string) error {
	m.logger.Info(ctx, "recovery mail", "email", email, "code", code)
	return nil
}

func (m *LogMailer) SendPasswordChanged(ctx context.Context, email string) error {
	m.logger.Info(ctx, "password changed mail", "email", email)
	return nil
}
