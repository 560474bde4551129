package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender sends through an SMTP relay. Auth is used only when a username is set, so
// Mailpit-style local relays work unauthenticated.
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	host := strings.TrimSpace(cfg.Host)
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "587"
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = "no-reply@minerva-salon.local"
	}
	s := &SMTPSender{
		addr:     net.JoinHostPort(host, port),
		host:     host,
		from:     from,
		sendMail: smtp.SendMail,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw := buildMessage(s.from, msg)
	if err := s.sendMail(s.addr, s.auth, s.from, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("mailer: smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// buildMessage renders a minimal RFC 5322 message, multipart/alternative when both bodies exist.
func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%q <%s>", msg.ToName, msg.To)
	}
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n", from, to, msg.Subject)

	switch {
	case msg.HTML != "" && msg.Body != "":
		boundary := "salonbook-" + uuid.NewString()
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.Body)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, msg.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case msg.HTML != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", msg.HTML)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", msg.Body)
	}
	return []byte(b.String())
}
