package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/channel"
	"github.com/prepmyapp/notification/internal/domain"
)

// SendRequest is the inbound shape of a SendNotification call.
type SendRequest struct {
	TenantID       string
	AccountID      string
	Type           domain.NotificationType
	Channels       []domain.Channel
	Title          string
	Body           string
	Locale         string
	Data           map[string]string
	SourceService  string
	Priority       domain.Priority
	IdempotencyKey string
}

// SendResult is a SendNotification response.
type SendResult struct {
	Success        bool
	NotificationID string
	Message        string
}

// BulkSendRequest is a SendBulkNotification request.
type BulkSendRequest struct {
	TenantID      string
	SourceService string
	Notifications []SendRequest
}

// BulkItemResult is one element of a bulk dispatch's per-item results.
type BulkItemResult struct {
	AccountID      string
	Success        bool
	NotificationID string
	Error          string
}

// BulkSendResult is a SendBulkNotification response.
type BulkSendResult struct {
	Success     bool
	TotalCount  int
	SentCount   int
	FailedCount int
	Results     []BulkItemResult
}

// NotificationStatusResult is a GetNotificationStatus response.
type NotificationStatusResult struct {
	NotificationID string
	Status         domain.Status
	Channel        domain.Channel
	ExternalID     string
	SentAt         *int64
	DeliveredAt    *int64
	Error          string
	RetryCount     int
}

// DispatchService is the public entry point of the notification core:
// it validates requests, enforces idempotency, invokes the
// ChannelRouter, writes audit records, and hosts the in-app query
// operations.
type DispatchService struct {
	notifications domain.NotificationRepository
	router        *ChannelRouter
	inApp         *channel.InAppAdapter
	audit         domain.AuditSink
	log           zerolog.Logger
}

func NewDispatchService(
	notifications domain.NotificationRepository,
	router *ChannelRouter,
	inApp *channel.InAppAdapter,
	audit domain.AuditSink,
	log zerolog.Logger,
) *DispatchService {
	return &DispatchService{
		notifications: notifications,
		router:        router,
		inApp:         inApp,
		audit:         audit,
		log:           log.With().Str("component", "dispatch_service").Logger(),
	}
}

// SendNotification implements sendNotification.
func (s *DispatchService) SendNotification(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := validateSendRequest(req); err != nil {
		return nil, err
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = RecommendedChannels(req.Type, req.Priority)
	}

	var notificationID string
	if req.IdempotencyKey != "" {
		notificationID = req.IdempotencyKey

		if existing, err := s.notifications.GetByID(ctx, notificationID); err == nil && existing != nil {
			return &SendResult{Success: true, NotificationID: notificationID, Message: "idempotent"}, nil
		}
	} else {
		notificationID = uuid.NewString()
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	normalized := domain.NormalizedRequest{
		NotificationID: notificationID,
		TenantID:       req.TenantID,
		AccountID:      req.AccountID,
		Type:           req.Type,
		Title:          req.Title,
		Body:           req.Body,
		Data:           req.Data,
		Locale:         locale,
		Priority:       req.Priority,
		SourceService:  req.SourceService,
	}

	results := s.router.Route(ctx, normalized, channels)

	anySuccess := false
	var failureMsgs []string
	resultChannels := make([]domain.Channel, len(results))
	for i, r := range results {
		resultChannels[i] = r.Channel
		if r.Result.Success {
			anySuccess = true
		} else if r.Result.Error != "" {
			failureMsgs = append(failureMsgs, fmt.Sprintf("%s: %s", r.Channel, r.Result.Error))
		}
	}

	if req.Type.IsSecurityClassified() {
		recordAudit(ctx, s.audit, s.log, notificationID, req.AccountID, req.Type, resultChannels, anySuccess)
	}

	message := fmt.Sprintf("Sent to %d channel(s)", countSuccesses(results))
	if !anySuccess {
		message = "Failed to send: " + strings.Join(failureMsgs, "; ")
	}

	return &SendResult{Success: anySuccess, NotificationID: notificationID, Message: message}, nil
}

// SendBulkNotification implements sendBulkNotification, iterating
// sequentially to preserve per-item idempotency.
func (s *DispatchService) SendBulkNotification(ctx context.Context, req BulkSendRequest) (*BulkSendResult, error) {
	result := &BulkSendResult{TotalCount: len(req.Notifications)}

	for _, item := range req.Notifications {
		item.TenantID = req.TenantID
		if item.SourceService == "" {
			item.SourceService = req.SourceService
		}

		sendResult, err := s.SendNotification(ctx, item)
		if err != nil {
			result.FailedCount++
			result.Results = append(result.Results, BulkItemResult{AccountID: item.AccountID, Success: false, Error: err.Error()})
			continue
		}

		if sendResult.Success {
			result.SentCount++
		} else {
			result.FailedCount++
		}
		result.Results = append(result.Results, BulkItemResult{
			AccountID:      item.AccountID,
			Success:        sendResult.Success,
			NotificationID: sendResult.NotificationID,
			Error:          errorOrEmpty(sendResult),
		})
	}

	result.Success = result.FailedCount == 0
	return result, nil
}

// GetNotifications implements getNotifications, delegating to the
// in-app adapter and normalizing pagination.
func (s *DispatchService) GetNotifications(ctx context.Context, tenantID, accountID string, opts domain.ListOptions) (*domain.NotificationList, error) {
	return s.inApp.List(ctx, tenantID, accountID, opts)
}

// MarkAsRead implements markAsRead, delegating to the in-app adapter.
func (s *DispatchService) MarkAsRead(ctx context.Context, tenantID, accountID string, ids []string) (int64, error) {
	return s.inApp.MarkAsRead(ctx, tenantID, accountID, ids)
}

// GetNotificationStatus implements getNotificationStatus.
func (s *DispatchService) GetNotificationStatus(ctx context.Context, notificationID string) *NotificationStatusResult {
	n, err := s.inApp.Status(ctx, notificationID)
	if err != nil || n == nil {
		return &NotificationStatusResult{NotificationID: notificationID, Status: domain.StatusUnspecified, Error: "Notification not found"}
	}

	return &NotificationStatusResult{
		NotificationID: n.ID,
		Status:         n.Status,
		Channel:        n.Channel,
		ExternalID:     n.ExternalID,
		SentAt:         toUnixPtr(n.SentAt),
		DeliveredAt:    toUnixPtr(n.DeliveredAt),
		Error:          n.Error,
		RetryCount:     n.RetryCount,
	}
}

func validateSendRequest(req SendRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return domain.NewErrValidation("tenantId", "must not be empty")
	}
	if strings.TrimSpace(req.AccountID) == "" {
		return domain.NewErrValidation("accountId", "must not be empty")
	}
	if strings.TrimSpace(req.Title) == "" {
		return domain.NewErrValidation("title", "must not be empty")
	}
	return nil
}

func countSuccesses(results []ChannelResult) int {
	n := 0
	for _, r := range results {
		if r.Result.Success {
			n++
		}
	}
	return n
}

func errorOrEmpty(r *SendResult) string {
	if r.Success {
		return ""
	}
	return r.Message
}

func toUnixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	sec := t.Unix()
	return &sec
}
