// Package smtp delivers alert and confirmation emails over an
// authenticated, implicitly encrypted connection.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	mail "github.com/wneessen/go-mail"

	"github.com/couchcryptid/disaster-monitor/internal/config"
	"github.com/couchcryptid/disaster-monitor/internal/domain"
)

var alertTemplate = template.Must(template.New("alert").Parse(`<html><body>
<h3>Disaster Alert</h3>
<p>A new potential disaster event has been detected that matches your subscription criteria.</p>
<ul>
  <li><strong>Event Type:</strong> {{.DisasterEvent}}</li>
  <li><strong>Location:</strong> {{.Location}}</li>
</ul>
<p><strong>Headline:</strong> {{.Title}}</p>
<p><a href="{{.URL}}" target="_blank">Click here to read the full article.</a></p>
<br>
<p><small>You are receiving this because you subscribed to alerts on the Global Disaster Monitor.</small></p>
</body></html>`))

const confirmationBody = `<html><body><p>Your subscription to the Global Disaster Monitor has been confirmed.</p><p>Best regards,<br>The Team</p></body></html>`

// Mailer sends single-recipient HTML messages through the configured SMTP
// host using implicit TLS.
type Mailer struct {
	client *mail.Client
	sender string
	logger *slog.Logger
}

// NewMailer builds an authenticated SMTPS client. The sender address
// doubles as the login username.
func NewMailer(cfg *config.Config, logger *slog.Logger) (*Mailer, error) {
	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.EmailSender),
		mail.WithPassword(cfg.EmailPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return &Mailer{client: client, sender: cfg.EmailSender, logger: logger}, nil
}

// SendAlert renders and sends one disaster alert to one recipient.
func (m *Mailer) SendAlert(ctx context.Context, recipient string, record domain.ArticleRecord) error {
	subject := fmt.Sprintf("New Disaster Alert: %s in %s", record.DisasterEvent, record.Location)

	body, err := renderAlertBody(record)
	if err != nil {
		return err
	}

	msg, err := m.newMessage(recipient, subject, body)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send alert to %s: %w", recipient, err)
	}
	return nil
}

// SendConfirmation sends the subscription confirmation message.
func (m *Mailer) SendConfirmation(ctx context.Context, recipient string) error {
	msg, err := m.newMessage(recipient, "Subscription Confirmation", confirmationBody)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", recipient, err)
	}
	return nil
}

func (m *Mailer) newMessage(recipient, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

// renderAlertBody fills the fixed alert template; template execution
// HTML-escapes the article fields.
func renderAlertBody(record domain.ArticleRecord) (string, error) {
	var buf bytes.Buffer
	if err := alertTemplate.Execute(&buf, record); err != nil {
		return "", fmt.Errorf("render alert body: %w", err)
	}
	return buf.String(), nil
}
