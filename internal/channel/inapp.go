// Package channel implements the four uniform ChannelAdapters: in-app,
// push, sms, email. Each adapter turns a domain.NormalizedRequest into
// a provider call and a domain.AdapterResult; none of them know about
// the ChannelRouter that invokes them.
package channel

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// RealtimePublisher pushes a freshly delivered in-app notification to
// any connected WebSocket client for the account. It is best-effort: a
// publish with no connected client is not an adapter failure.
type RealtimePublisher interface {
	Publish(tenantID, accountID string, n *domain.Notification)
}

// InAppAdapter persists in-app notifications directly as delivered rows
// and additionally supplements delivery with a real-time push over the
// WebSocket hub when a client is connected.
type InAppAdapter struct {
	repo      domain.NotificationRepository
	publisher RealtimePublisher
	log       zerolog.Logger
}

func NewInAppAdapter(repo domain.NotificationRepository, publisher RealtimePublisher, log zerolog.Logger) *InAppAdapter {
	return &InAppAdapter{repo: repo, publisher: publisher, log: log.With().Str("adapter", "in_app").Logger()}
}

func (a *InAppAdapter) Channel() domain.Channel { return domain.ChannelInApp }

func (a *InAppAdapter) Send(ctx context.Context, req domain.NormalizedRequest) domain.AdapterResult {
	id := req.NotificationID
	if id == "" {
		id = uuid.NewString()
	}

	n := domain.NewNotification(id, req.TenantID, req.AccountID, req.Type, domain.ChannelInApp, req.Title, req.Body, req.Data, req.Priority, req.SourceService)
	n.MarkDelivered(req.NotificationID)

	if err := a.repo.Create(ctx, n); err != nil {
		if errors.Is(err, domain.ErrIdempotentConflict) {
			// Lost the insert race to a concurrent call with the same
			// idempotency key; the winner's row is the true result.
			existing, getErr := a.repo.GetByID(ctx, id)
			if getErr == nil && existing != nil {
				return domain.AdapterResult{Success: true, ExternalID: existing.ExternalID}
			}
		}
		a.log.Error().Err(err).Str("tenant_id", req.TenantID).Str("account_id", req.AccountID).Msg("failed to persist in-app notification")
		return domain.AdapterResult{Success: false, Error: "storage failure"}
	}

	if a.publisher != nil {
		a.publisher.Publish(req.TenantID, req.AccountID, n)
	}

	return domain.AdapterResult{Success: true, ExternalID: req.NotificationID}
}

// List delegates to the repository, applying the page/pageSize
// normalization DispatchService.GetNotifications requires.
func (a *InAppAdapter) List(ctx context.Context, tenantID, accountID string, opts domain.ListOptions) (*domain.NotificationList, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return a.repo.List(ctx, tenantID, accountID, opts)
}

// MarkAsRead delegates to the repository.
func (a *InAppAdapter) MarkAsRead(ctx context.Context, tenantID, accountID string, ids []string) (int64, error) {
	return a.repo.MarkAsRead(ctx, tenantID, accountID, ids)
}

// Status returns the stored delivery record for any channel.
func (a *InAppAdapter) Status(ctx context.Context, notificationID string) (*domain.Notification, error) {
	return a.repo.GetByID(ctx, notificationID)
}
