package sendgrid

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/prepmyapp/notification/internal/domain"
)

// Client wraps the SendGrid API client and implements
// domain.EmailRenderer. Template selection is data-driven: each
// domain.EmailTemplate maps to a SendGrid dynamic template id via
// Config.Templates, so adding a template never touches this file.
type Client struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	templates map[domain.EmailTemplate]string
}

// Config holds SendGrid configuration.
type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
	Templates map[domain.EmailTemplate]string
}

// NewClient creates a new SendGrid client. Returns nil when no API key
// is configured; callers must check Configured().
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	return &Client{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		templates: cfg.Templates,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.client != nil
}

// Send implements domain.EmailRenderer. When a dynamic template id is
// registered for msg.Template it sends through SendGrid's template
// path with msg.Variables as the personalization data; otherwise it
// falls back to a plain-text send so an unmapped template still
// delivers something instead of silently dropping the notification.
func (c *Client) Send(ctx context.Context, msg domain.EmailMessage) (*domain.EmailResult, error) {
	fromEmail := msg.FromEmail
	if fromEmail == "" {
		fromEmail = c.fromEmail
	}
	from := mail.NewEmail(c.fromName, fromEmail)
	to := mail.NewEmail("", msg.ToEmail)

	templateID := c.templates[msg.Template]

	var sgMessage *mail.SGMailV3
	if templateID != "" {
		sgMessage = mail.NewV3Mail()
		sgMessage.SetFrom(from)
		sgMessage.SetTemplateID(templateID)

		personalization := mail.NewPersonalization()
		personalization.AddTos(to)
		for key, value := range msg.Variables {
			personalization.SetDynamicTemplateData(key, value)
		}
		sgMessage.AddPersonalizations(personalization)
	} else {
		subject := fmt.Sprintf("Notification: %s", msg.Template)
		body := renderPlainBody(msg.Variables)
		sgMessage = mail.NewSingleEmail(from, subject, to, body, body)
	}

	response, err := c.client.Send(sgMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return &domain.EmailResult{Success: false, Message: fmt.Sprintf("sendgrid error: status %d", response.StatusCode)}, nil
	}

	emailLogID := ""
	if id := response.Headers["X-Message-Id"]; len(id) > 0 {
		emailLogID = id[0]
	}

	return &domain.EmailResult{Success: true, EmailLogID: emailLogID, Message: "sent"}, nil
}

func renderPlainBody(variables map[string]string) string {
	body := ""
	for key, value := range variables {
		body += fmt.Sprintf("%s: %s\n", key, value)
	}
	return body
}
