// Package mail delivers the rendered digest over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Config carries the SMTP settings for digest delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// Sender delivers digest documents to the configured recipients.
type Sender struct {
	cfg Config
}

// NewSender creates a sender. Configuration is validated on first send,
// not here, so a dry run never needs working mail settings.
func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers one HTML document with the given subject.
func (s *Sender) Send(ctx context.Context, subject string, htmlBody []byte) error {
	if s.cfg.Host == "" || s.cfg.From == "" || len(s.cfg.To) == 0 {
		return fmt.Errorf("mail not configured: host, from, and to are required")
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(s.cfg.To...); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, string(htmlBody))

	opts := []gomail.Option{gomail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
