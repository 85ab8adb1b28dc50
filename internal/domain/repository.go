package domain

import (
	"context"

	"github.com/google/uuid"
)

// ListOptions governs the in-app adapter's list query.
type ListOptions struct {
	Channel    *Channel
	UnreadOnly bool
	Page       int
	PageSize   int
}

// NotificationList is the uniform result of a paginated in-app query.
type NotificationList struct {
	Items       []*Notification
	TotalCount  int64
	UnreadCount int64
}

// ErrIdempotentConflict is returned by NotificationRepository.Create
// when a row with the same id already exists (the loser of a
// concurrent idempotent-send race); callers must then GetByID to
// retrieve the winner's row.
var ErrIdempotentConflict = NewErrValidation("id", "notification already exists")

// NotificationRepository persists Notification rows. Create must make
// the id column an exclusive insert target (unique constraint) so that
// concurrent idempotent sends race safely. id is opaque (see
// Notification.ID) and must be stored and compared as a plain string,
// never parsed as a uuid.UUID.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, tenantID, accountID string, opts ListOptions) (*NotificationList, error)
	UpdateStatus(ctx context.Context, id string, status Status, externalID, errMsg string) error
	MarkAsRead(ctx context.Context, tenantID, accountID string, ids []string) (int64, error)
	UnreadCount(ctx context.Context, tenantID, accountID string) (int64, error)
}

// PreferenceRepository persists ChannelPreference and TypePreference
// rows.
type PreferenceRepository interface {
	Get(ctx context.Context, tenantID, accountID string) PreferenceResult
	Update(ctx context.Context, tenantID, accountID string, channelPrefs []ChannelPreference, typePrefs []TypePreference) error
}

// QuietHoursRepository persists the QuietHours entity.
type QuietHoursRepository interface {
	Get(ctx context.Context, tenantID, accountID string) QuietHoursResult
	Update(ctx context.Context, config QuietHoursConfig) error
}

// DeviceTokenRepository persists DeviceToken rows.
type DeviceTokenRepository interface {
	Register(ctx context.Context, token *DeviceToken) (uuid.UUID, error)
	Unregister(ctx context.Context, tenantID, accountID, token string) (bool, error)
	ListForAccount(ctx context.Context, tenantID, accountID string) ([]*DeviceToken, error)
	ActiveTokens(ctx context.Context, tenantID, accountID string) ([]string, error)
	EvictByToken(ctx context.Context, token string) error
}
