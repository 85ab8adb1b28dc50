package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/prepmyapp/notification/internal/domain"
)

// Client wraps Firebase Cloud Messaging and implements domain.PushProvider.
// It is the one concrete PushProvider this repository wires; nothing
// above the interface knows FCM exists.
type Client struct {
	messaging *messaging.Client
}

// Config holds Firebase configuration.
type Config struct {
	CredentialsPath string
	CredentialsJSON string
}

// NewClient creates a new Firebase messaging client. Returns (nil, nil)
// when no credentials are configured, matching the donor's
// optional-dependency boot pattern; callers must check for a nil
// *Client and treat push as unconfigured (Configured() handles this).
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.CredentialsPath == "" && cfg.CredentialsJSON == "" {
		return nil, nil
	}

	var app *firebase.App
	var err error

	switch {
	case cfg.CredentialsJSON != "":
		opt := option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
		app, err = firebase.NewApp(ctx, nil, opt)
	case cfg.CredentialsPath != "":
		opt := option.WithCredentialsFile(cfg.CredentialsPath)
		app, err = firebase.NewApp(ctx, nil, opt)
	default:
		app, err = firebase.NewApp(ctx, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &Client{messaging: messagingClient}, nil
}

// Configured reports whether a usable Firebase client is present.
func (c *Client) Configured() bool {
	return c != nil && c.messaging != nil
}

// SendMulticast implements domain.PushProvider. It translates the
// generic domain.PushMessage into Firebase's per-platform config blocks
// and classifies each per-message failure into the provider-agnostic
// taxonomy in domain.PushResultCode.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) (*domain.MulticastResult, error) {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: msg.AndroidPriority,
			Notification: &messaging.AndroidNotification{
				ChannelID: msg.AndroidChannel,
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": msg.APNSPriority},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Icon:  "/icon.png",
			},
		},
	}
	if msg.WebRequireInteract {
		message.Webpush.Notification.RequireInteraction = true
	}
	if msg.WebLink != "" {
		message.Webpush.FcmOptions = &messaging.WebpushFcmOptions{Link: msg.WebLink}
	}

	response, err := c.messaging.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to send multicast: %w", err)
	}

	result := &domain.MulticastResult{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
		PerMessage:   make([]domain.PushMessageResult, len(response.Responses)),
	}

	for i, resp := range response.Responses {
		if resp.Success {
			result.PerMessage[i] = domain.PushMessageResult{Success: true, MessageID: resp.MessageID, Code: domain.PushResultOK}
			continue
		}
		result.PerMessage[i] = domain.PushMessageResult{Success: false, Code: classifyError(resp.Error), Error: resp.Error.Error()}
	}

	return result, nil
}

// classifyError maps a Firebase Messaging SDK error into the
// provider-agnostic taxonomy domain.PushResultCode declares.
func classifyError(err error) domain.PushResultCode {
	switch {
	case err == nil:
		return domain.PushResultOK
	case messaging.IsUnregistered(err):
		return domain.PushResultNotRegistered
	case messaging.IsInvalidArgument(err):
		return domain.PushResultInvalidToken
	case messaging.IsQuotaExceeded(err):
		return domain.PushResultRateLimited
	case messaging.IsUnavailable(err) || messaging.IsInternal(err):
		return domain.PushResultTransient
	default:
		return domain.PushResultFatal
	}
}
