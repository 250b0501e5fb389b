// Package mailer sends individually addressed emails through Mailgun, an
// SMTP relay, or the log (development).
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/config"
)

// Message is one email to one recipient.
type Message struct {
	To      string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the mailer selected by MAIL_DRIVER.
func New(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Driver {
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			return nil, fmt.Errorf("mailgun driver requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
		return NewMailgunMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From), nil
	case "smtp":
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("smtp driver requires SMTP_HOST")
		}
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.From), nil
	case "", "log":
		return NewLogMailer(slog.Default()), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_DRIVER %q", cfg.Driver)
	}
}

// LogMailer writes every email to the log instead of delivering it.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "email (log driver)", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.Text))
	return nil
}
