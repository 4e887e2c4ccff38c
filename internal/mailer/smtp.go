package mailer

import (
	"context"
	"fmt"
	"time"

	mail "gopkg.in/mail.v2"
)

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	dialer   *mail.Dialer
	from     string
	fromName string
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(host string, port int, username, password, from, fromName string) *SMTPMailer {
	d := mail.NewDialer(host, port, username, password)
	d.Timeout = 15 * time.Second
	return &SMTPMailer{dialer: d, from: from, fromName: fromName}
}

func (m *SMTPMailer) build(msg Message) *mail.Message {
	mm := mail.NewMessage()
	mm.SetAddressHeader("From", m.from, m.fromName)
	if msg.ToName != "" {
		mm.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		mm.SetHeader("To", msg.To)
	}
	mm.SetHeader("Subject", msg.Subject)

	switch {
	case msg.Text != "" && msg.HTML != "":
		mm.SetBody("text/plain", msg.Text)
		mm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		mm.SetBody("text/html", msg.HTML)
	default:
		mm.SetBody("text/plain", msg.Text)
	}
	return mm
}

// Send delivers msg. The context is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
