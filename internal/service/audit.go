package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// recordAudit fires one audit event for a security-classified dispatch.
// Failures are logged and swallowed; they never fail the dispatch
// itself.
func recordAudit(ctx context.Context, sink domain.AuditSink, log zerolog.Logger, notificationID, accountID string, notifType domain.NotificationType, channels []domain.Channel, anySuccess bool) {
	if sink == nil {
		return
	}

	result := "failure"
	if anySuccess {
		result = "success"
	}

	channelNames := make([]string, len(channels))
	for i, c := range channels {
		channelNames[i] = string(c)
	}

	event := domain.AuditEvent{
		EventType:   domain.AuditEventTypeFor(notifType),
		AccountType: "user",
		AccountID:   accountID,
		IPAddress:   "notification-service",
		UserAgent:   "notification-service",
		Result:      result,
		Metadata: map[string]string{
			"action":           "NOTIFICATION_SENT",
			"notificationId":   notificationID,
			"channels":         strings.Join(channelNames, ","),
			"notificationType": string(notifType),
		},
	}

	if err := sink.LogEvent(ctx, event); err != nil {
		log.Warn().Err(err).Str("notification_id", notificationID).Str("account_id", accountID).Msg("audit event failed")
	}
}
