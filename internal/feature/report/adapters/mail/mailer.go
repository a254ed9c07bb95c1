// Package mail sends the report e-mail over SMTP.
package mail

import (
	"context"

	gomail "gopkg.in/gomail.v2"

	"github.com/UWorldJK/stocks-etl/internal/feature/report/usecase"
)

// Config holds the SMTP settings. The endpoint is typically a transactional
// relay (e.g. the SES SMTP interface).
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// Enabled reports whether enough configuration is present to send mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.Sender != "" && c.Recipient != ""
}

// SMTPMailer implements the report Mailer over gomail.
type SMTPMailer struct {
	cfg Config
}

var _ usecase.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers a multipart message with a plain-text body, an HTML
// alternative and the given file attachments.
func (m *SMTPMailer) Send(ctx context.Context, subject, textBody, htmlBody string, attachments []string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", m.cfg.Recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	if htmlBody != "" {
		msg.AddAlternative("text/html", htmlBody)
	}
	for _, path := range attachments {
		msg.Attach(path)
	}

	// gomail has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}
