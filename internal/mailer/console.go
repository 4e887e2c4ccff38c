package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// ConsoleMailer writes messages to the log instead of sending them.
type ConsoleMailer struct {
	log zerolog.Logger
}

// NewConsoleMailer creates a ConsoleMailer.
func NewConsoleMailer(log zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{log: log.With().Str("component", "mailer").Logger()}
}

// Send logs msg.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email (console driver)")
	return nil
}
