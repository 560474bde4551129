package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minerva-salon/salonbook/libs/config"
)

type ProviderConfig struct {
	Provider string // smtp|sendgrid|ses|stub
	SMTP     SMTPConfig
	SendGrid SendGridConfig
	SES      SESConfig
}

// ConfigFromEnv reads EMAIL_PROVIDER, SMTP_*, SENDGRID_API_KEY, AWS_REGION and MAIL_FROM*.
func ConfigFromEnv() ProviderConfig {
	from := config.String("MAIL_FROM", "no-reply@minerva-salon.local")
	fromName := config.String("MAIL_FROM_NAME", "Minerva Salon")
	return ProviderConfig{
		Provider: strings.ToLower(config.String("EMAIL_PROVIDER", "stub")),
		SMTP: SMTPConfig{
			Host:     config.String("SMTP_HOST", "localhost"),
			Port:     config.String("SMTP_PORT", "1025"),
			Username: config.String("SMTP_USER", ""),
			Password: config.String("SMTP_PASS", ""),
			From:     from,
		},
		SendGrid: SendGridConfig{
			APIKey:    config.String("SENDGRID_API_KEY", ""),
			FromEmail: from,
			FromName:  fromName,
		},
		SES: SESConfig{
			Region:    config.String("AWS_REGION", ""),
			FromEmail: from,
			FromName:  fromName,
		},
	}
}

// New builds the configured sender.
func New(ctx context.Context, cfg ProviderConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "", "stub":
		return NewStubSender(logger), nil
	case "smtp":
		return NewSMTPSender(cfg.SMTP), nil
	case "sendgrid":
		s := NewSendGridSender(cfg.SendGrid)
		if s == nil {
			return nil, fmt.Errorf("mailer: SENDGRID_API_KEY is required for provider sendgrid")
		}
		return s, nil
	case "ses":
		return NewSESSenderFromEnv(ctx, cfg.SES)
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
	}
}
