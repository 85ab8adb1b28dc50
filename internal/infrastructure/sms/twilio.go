package sms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prepmyapp/notification/internal/domain"
)

// TwilioClient sends SMS through Twilio's REST API and implements
// domain.SMSProvider. There is no Twilio Go SDK in this tree; the
// donor's raw net/http client shape is reused as-is.
type TwilioClient struct {
	accountSID  string
	authToken   string
	fromNumber  string
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rateLimiter
}

// Config holds Twilio configuration.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
	RateLimit  int // messages per second, 0 for no limit
}

// NewTwilioClient creates a new Twilio SMS client. Returns nil when
// the account SID is unset; callers must check Configured().
func NewTwilioClient(cfg Config) *TwilioClient {
	if cfg.AccountSID == "" {
		return nil
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &TwilioClient{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s", cfg.AccountSID),
		httpClient: &http.Client{Timeout: timeout},
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

func (c *TwilioClient) Name() string { return "twilio" }

func (c *TwilioClient) Configured() bool {
	return c != nil && c.accountSID != "" && c.authToken != ""
}

type twilioSendResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    int    `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SendSMS implements domain.SMSProvider.
func (c *TwilioClient) SendSMS(ctx context.Context, phoneNumber, body string) (*domain.SMSResult, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	to := normalizePhoneNumber(phoneNumber)

	data := url.Values{}
	data.Set("To", to)
	data.Set("From", c.fromNumber)
	data.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Messages.json", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", c.basicAuth())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.SMSResult{Success: false, Error: err.Error(), IsTransient: true}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp twilioErrorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr != nil {
			return &domain.SMSResult{Success: false, Error: fmt.Sprintf("twilio error: status %d", resp.StatusCode), IsTransient: resp.StatusCode >= 500}, nil
		}
		return &domain.SMSResult{
			Success:     false,
			Error:       fmt.Sprintf("twilio error %d: %s", errResp.Code, errResp.Message),
			IsTransient: !isPermanentTwilioErrorCode(errResp.Code),
		}, nil
	}

	var sendResp twilioSendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &domain.SMSResult{Success: true, MessageID: sendResp.SID}, nil
}

func (c *TwilioClient) basicAuth() string {
	auth := c.accountSID + ":" + c.authToken
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(auth))
}

// permanentTwilioErrorCodes are Twilio error codes that indicate the
// destination itself is unreachable (bad number, landline, opted out),
// not a transient carrier or network problem.
var permanentTwilioErrorCodes = map[int]bool{
	21211: true, // invalid 'To' phone number
	21212: true, // invalid phone number
	21214: true, // 'To' phone number cannot be reached
	21217: true, // invalid phone number format
	21408: true, // permission denied
	21610: true, // unsubscribed recipient
	21611: true, // cannot send to landline
	21612: true, // cannot send to toll-free number
	30003: true, // unreachable destination handset
	30004: true, // message blocked
	30005: true, // unknown destination handset
	30006: true, // landline or unreachable carrier
	30007: true, // carrier violation
}

func isPermanentTwilioErrorCode(code int) bool {
	return permanentTwilioErrorCodes[code]
}

// normalizePhoneNumber coerces a phone number into E.164 format,
// assuming a US number when no country code is present.
func normalizePhoneNumber(phone string) string {
	phone = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '+' {
			return r
		}
		return -1
	}, phone)

	if !strings.HasPrefix(phone, "+") {
		if len(phone) == 10 {
			phone = "+1" + phone
		} else {
			phone = "+" + phone
		}
	}

	return phone
}

// rateLimiter implements token-bucket rate limiting per second.
type rateLimiter struct {
	mu       sync.Mutex
	tokens   int
	maxRate  int
	lastTick time.Time
}

func newRateLimiter(rate int) *rateLimiter {
	if rate <= 0 {
		return nil
	}
	return &rateLimiter{tokens: rate, maxRate: rate, lastTick: time.Now()}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	if r == nil {
		return nil
	}

	for {
		r.mu.Lock()
		now := time.Now()
		if now.Sub(r.lastTick) >= time.Second {
			r.tokens = r.maxRate
			r.lastTick = now
		}
		if r.tokens > 0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
