// Package mailer renders transactional emails and delivers them through
// SMTP, SendGrid, or the log (development).
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers rendered messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// New returns the Mailer selected by MAIL_DRIVER.
func New(cfg *config.Config, log zerolog.Logger) (Mailer, error) {
	switch strings.ToLower(cfg.MailDriver) {
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("mailer: SENDGRID_API_KEY is required for the sendgrid driver")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName), nil
	case "console", "":
		return NewConsoleMailer(log), nil
	default:
		return nil, fmt.Errorf("mailer: unknown driver %q", cfg.MailDriver)
	}
}
