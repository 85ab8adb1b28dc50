package channel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// EmailAdapter maps a NormalizedRequest's type to a template id and
// forwards the send to the configured domain.EmailRenderer.
type EmailAdapter struct {
	renderer       domain.EmailRenderer
	defaultDomain  string
	log            zerolog.Logger
}

// NewEmailAdapter builds an EmailAdapter. defaultDomain backs the
// fromEmail fallback "noreply@<configured>" when the caller does not
// supply data.fromEmail.
func NewEmailAdapter(renderer domain.EmailRenderer, defaultDomain string, log zerolog.Logger) *EmailAdapter {
	return &EmailAdapter{renderer: renderer, defaultDomain: defaultDomain, log: log.With().Str("adapter", "email").Logger()}
}

func (a *EmailAdapter) Channel() domain.Channel { return domain.ChannelEmail }

func (a *EmailAdapter) Send(ctx context.Context, req domain.NormalizedRequest) domain.AdapterResult {
	if a.renderer == nil || !a.renderer.Configured() {
		return domain.AdapterResult{Success: false, Error: "email not configured"}
	}

	toEmail := req.Data["email"]
	if toEmail == "" {
		return domain.AdapterResult{Success: false, Error: "no email address"}
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	fromEmail := req.Data["fromEmail"]
	if fromEmail == "" {
		fromEmail = "noreply@" + a.defaultDomain
	}

	msg := domain.EmailMessage{
		TenantID:      req.TenantID,
		AccountID:     req.AccountID,
		ToEmail:       toEmail,
		Template:      domain.EmailTemplateFor(req.Type),
		Locale:        locale,
		Variables:     req.Data,
		SourceService: "notification-service",
		FromEmail:     fromEmail,
		Metadata: map[string]string{
			"notificationId":   req.NotificationID,
			"notificationType": string(req.Type),
		},
	}

	result, err := a.renderer.Send(ctx, msg)
	if err != nil {
		a.log.Error().Err(err).Str("tenant_id", req.TenantID).Msg("email rpc failed")
		return domain.AdapterResult{Success: false, Error: err.Error()}
	}

	return domain.AdapterResult{Success: result.Success, ExternalID: result.EmailLogID, Error: errIfFailed(result)}
}

func errIfFailed(r *domain.EmailResult) string {
	if r.Success {
		return ""
	}
	if r.Message != "" {
		return r.Message
	}
	return "email send failed"
}
