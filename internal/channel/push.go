package channel

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// PushAdapter resolves active device tokens and dispatches a multicast
// push through the configured domain.PushProvider, evicting any token
// the provider reports as invalid or unregistered.
type PushAdapter struct {
	provider domain.PushProvider
	tokens   domain.DeviceTokenRepository
	log      zerolog.Logger
}

func NewPushAdapter(provider domain.PushProvider, tokens domain.DeviceTokenRepository, log zerolog.Logger) *PushAdapter {
	return &PushAdapter{provider: provider, tokens: tokens, log: log.With().Str("adapter", "push").Logger()}
}

func (a *PushAdapter) Channel() domain.Channel { return domain.ChannelPush }

func (a *PushAdapter) Send(ctx context.Context, req domain.NormalizedRequest) domain.AdapterResult {
	if a.provider == nil || !a.provider.Configured() {
		return domain.AdapterResult{Success: false, Error: "push not configured"}
	}

	tokens, err := a.tokens.ActiveTokens(ctx, req.TenantID, req.AccountID)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to resolve active device tokens")
		return domain.AdapterResult{Success: false, Error: "no registered devices"}
	}
	if len(tokens) == 0 {
		return domain.AdapterResult{Success: false, Error: "no registered devices"}
	}

	return a.sendToTokens(ctx, tokens, req.Title, req.Body, mergedData(req), req.Priority)
}

// SendToTokens bypasses the registry lookup, used when a caller already
// holds the exact token set to target.
func (a *PushAdapter) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string, priority domain.Priority) domain.AdapterResult {
	if len(tokens) == 0 {
		return domain.AdapterResult{Success: false, Error: "no tokens"}
	}
	return a.sendToTokens(ctx, tokens, title, body, data, priority)
}

func (a *PushAdapter) sendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string, priority domain.Priority) domain.AdapterResult {
	msg := buildPushMessage(title, body, data, priority)

	result, err := a.provider.SendMulticast(ctx, tokens, msg)
	if err != nil {
		a.log.Error().Err(err).Msg("push provider multicast failed")
		return domain.AdapterResult{Success: false, Error: err.Error()}
	}

	for i, pm := range result.PerMessage {
		if !pm.Success && pm.Code.EvictsToken() && i < len(tokens) {
			if evictErr := a.tokens.EvictByToken(ctx, tokens[i]); evictErr != nil {
				a.log.Warn().Err(evictErr).Str("token", redactToken(tokens[i])).Msg("failed to evict invalid device token")
			}
		}
	}

	out := domain.AdapterResult{Success: result.SuccessCount > 0}
	if len(result.PerMessage) > 0 && result.PerMessage[0].MessageID != "" {
		out.ExternalID = result.PerMessage[0].MessageID
	}
	if result.FailureCount > 0 {
		out.Error = fmt.Sprintf("%d device(s) failed", result.FailureCount)
	}
	return out
}

func mergedData(req domain.NormalizedRequest) map[string]string {
	data := make(map[string]string, len(req.Data)+2)
	for k, v := range req.Data {
		data[k] = v
	}
	data["notificationId"] = req.NotificationID
	data["type"] = string(req.Type)
	return data
}

// buildPushMessage applies the priority -> platform config mapping.
func buildPushMessage(title, body string, data map[string]string, priority domain.Priority) domain.PushMessage {
	msg := domain.PushMessage{Title: title, Body: body, Data: data}

	switch priority {
	case domain.PriorityUrgent:
		msg.AndroidPriority, msg.AndroidChannel, msg.APNSPriority = "high", "urgent", "10"
	case domain.PriorityHigh:
		msg.AndroidPriority, msg.AndroidChannel, msg.APNSPriority = "high", "high", "10"
	default: // normal, low
		msg.AndroidPriority, msg.AndroidChannel, msg.APNSPriority = "normal", "default", "5"
	}

	msg.WebRequireInteract = priority.AtLeast(domain.PriorityHigh)
	msg.WebLink = data["link"]
	return msg
}

func redactToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
