package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// MailgunMailer delivers through the Mailgun HTTP API.
type MailgunMailer struct {
	mg   mailgun.Mailgun
	from string
}

func NewMailgunMailer(domain, apiKey, from string) *MailgunMailer {
	return &MailgunMailer{mg: mailgun.NewMailgun(domain, apiKey), from: from}
}

func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	message := mailgun.NewMessage(m.from, msg.Subject, msg.Text, msg.To)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, _, err := m.mg.Send(ctx, message); err != nil {
		if strings.Contains(err.Error(), "401") {
			return fmt.Errorf("mailgun unauthorized: check MAILGUN_API_KEY and MAILGUN_DOMAIN")
		}
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
