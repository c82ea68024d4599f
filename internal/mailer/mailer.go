// Package mailer is the outbound-mail port. The server core only depends on
// the interface; deployments plug in a real delivery backend.
package mailer

import (
	"context"
	"log/slog"
)

// Mailer sends the transactional mails the auth flows need.
type Mailer interface {
	SendVerification(ctx context.Context, to, link string) error
	SendPasswordReset(ctx context.Context, to, link string) error
	SendMeetupConfirmed(ctx context.Context, to, roomURL, whenUTC string) error
}

// LogMailer writes mails to the structured log instead of delivering them.
// The default in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a logging mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, link string) error {
	m.logger.InfoContext(ctx, "mail: verification", "to", to, "link", link)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	m.logger.InfoContext(ctx, "mail: password reset", "to", to, "link", link)
	return nil
}

func (m *LogMailer) SendMeetupConfirmed(ctx context.Context, to, roomURL, whenUTC string) error {
	m.logger.InfoContext(ctx, "mail: meetup confirmed", "to", to, "room", roomURL, "when", whenUTC)
	return nil
}
