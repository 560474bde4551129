// Package mailer sends transactional email through SMTP, SendGrid or SES.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is implemented by every provider. Callers never know which one is configured.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string // plain text
	HTML    string
}

var ErrNoRecipient = errors.New("mailer: message has no recipient")

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("mailer: message to %s has no subject", m.To)
	}
	return nil
}

// StubSender logs instead of sending.
type StubSender struct {
	logger *slog.Logger
}

func NewStubSender(logger *slog.Logger) *StubSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSender{logger: logger}
}

func (s *StubSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("stub mailer: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ Sender = (*StubSender)(nil)
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*SendGridSender)(nil)
	_ Sender = (*SESSender)(nil)
)
