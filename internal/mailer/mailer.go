// Package mailer sends transactional e-mail such as password-reset links.
package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"vividplate/internal/config"
	"vividplate/internal/middleware"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single outgoing e-mail.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid mailer when an API key is configured and a
// logging mailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg.SendGridAPIKey == "" {
		return &LogMailer{}
	}
	return NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client sendClient
	from   *mail.Email
}

// NewSendGridMailer builds a mailer sending as fromAddr.
func NewSendGridMailer(apiKey, fromAddr string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("VividPlate", fromAddr),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	middleware.Logger.InfoContext(ctx, "email sent",
		slog.String("subject", msg.Subject), slog.Int("status", resp.StatusCode))
	return nil
}

// LogMailer writes messages to the structured log. Used in development.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	middleware.Logger.InfoContext(ctx, "email (not sent, no SENDGRID_API_KEY)",
		slog.String("to", msg.ToEmail),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Text),
	)
	return nil
}

// PasswordReset renders the reset e-mail for link.
func PasswordReset(name, email, link string, ttlMinutes int) Message {
	if name == "" {
		name = email
	}
	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Reset your VividPlate password",
		Text: fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in %d minutes.\n\n%s\n\nIf you did not ask for this, ignore this e-mail.\n",
			name, ttlMinutes, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Use the link below to choose a new password. It expires in %d minutes.</p><p><a href="%s">Reset password</a></p><p>If you did not ask for this, ignore this e-mail.</p>`,
			html.EscapeString(name), ttlMinutes, html.EscapeString(link)),
	}
}
