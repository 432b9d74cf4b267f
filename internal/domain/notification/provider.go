package notification

import (
	"context"
	"errors"
)

// ErrEmailNotConfigured is returned by an EmailSender that has no provider
// credentials. The dispatcher records the email channel as skipped.
var ErrEmailNotConfigured = errors.New("email provider not configured")

// EmailMessage is a rendered transactional email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailSender delivers transactional email.
// Implementations live in infra/email/ (e.g., Resend).
type EmailSender interface {
	// Send delivers a message and returns the provider's message ID.
	Send(ctx context.Context, msg *EmailMessage) (string, error)

	// Configured reports whether credentials are present.
	Configured() bool
}

// EmailRenderer turns composed content into an email body.
// Implementations live in infra/template/.
type EmailRenderer interface {
	Render(recipient Recipient, content Content) (subject, html, text string, err error)
}
