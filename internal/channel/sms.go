package channel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// SMSAdapter forwards a single SMS send to the configured
// domain.SMSProvider. cmd/server/main.go always constructs it with the
// Twilio client; no other provider (such as aws-sns) can be selected.
type SMSAdapter struct {
	provider domain.SMSProvider
	log      zerolog.Logger
}

func NewSMSAdapter(provider domain.SMSProvider, log zerolog.Logger) *SMSAdapter {
	return &SMSAdapter{provider: provider, log: log.With().Str("adapter", "sms").Logger()}
}

func (a *SMSAdapter) Channel() domain.Channel { return domain.ChannelSMS }

func (a *SMSAdapter) Send(ctx context.Context, req domain.NormalizedRequest) domain.AdapterResult {
	if a.provider == nil || !a.provider.Configured() {
		return domain.AdapterResult{Success: false, Error: "sms not configured"}
	}

	phoneNumber := req.Data["phoneNumber"]
	if phoneNumber == "" {
		return domain.AdapterResult{Success: false, Error: "no phone number"}
	}

	result, err := a.provider.SendSMS(ctx, phoneNumber, req.Body)
	if err != nil {
		a.log.Error().Err(err).Str("provider", a.provider.Name()).Msg("sms send failed")
		return domain.AdapterResult{Success: false, Error: err.Error()}
	}

	return domain.AdapterResult{Success: result.Success, ExternalID: result.MessageID, Error: result.Error}
}
