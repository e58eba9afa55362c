package auth

import (
	"context"

	"github.com/reelshare/backend/pkg/logger"
)

// Mailer delivers confirmation links to new accounts.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, link string) error
}

// LogMailer writes the link to the structured log. Development only.
type LogMailer struct{}

func (LogMailer) SendConfirmation(_ context.Context, email, link string) error {
	logger.Info("confirmation_email_sent", map[string]interface{}{
		"email": email,
		"link":  link,
	})
	return nil
}
