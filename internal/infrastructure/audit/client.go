package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// Client posts security-classified audit events to an external audit
// service over HTTP and implements domain.AuditSink. There is no
// dedicated audit SDK in this tree, so it follows the same
// authenticated-raw-HTTP shape as the Twilio client for consistency.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// Config holds audit service configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new audit client. Returns nil when no base URL
// is configured; callers must check Configured().
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "audit_client").Logger(),
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

type auditEventPayload struct {
	EventType   string            `json:"eventType"`
	AccountType string            `json:"accountType"`
	AccountID   string            `json:"accountId"`
	IPAddress   string            `json:"ipAddress"`
	UserAgent   string            `json:"userAgent"`
	Result      string            `json:"result"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LogEvent implements domain.AuditSink.
func (c *Client) LogEvent(ctx context.Context, event domain.AuditEvent) error {
	payload := auditEventPayload{
		EventType:   string(event.EventType),
		AccountType: event.AccountType,
		AccountID:   event.AccountID,
		IPAddress:   event.IPAddress,
		UserAgent:   event.UserAgent,
		Result:      event.Result,
		Metadata:    event.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send audit event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("audit service error: status %d", resp.StatusCode)
	}

	return nil
}
