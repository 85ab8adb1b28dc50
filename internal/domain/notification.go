package domain

import (
	"time"
)

// Notification is the record of one logical dispatch to one account on
// one channel. A single logical send fans out into one Notification row
// per effective channel. ID is opaque: it equals the caller's supplied
// idempotency key verbatim when one was given, or a freshly minted uuid
// string otherwise, so it must never be parsed or reinterpreted as a
// uuid.UUID.
type Notification struct {
	ID            string            `json:"id"`
	TenantID      string            `json:"tenantId"`
	AccountID     string            `json:"accountId"`
	Type          NotificationType  `json:"type"`
	Channel       Channel           `json:"channel"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	Data          map[string]string `json:"data,omitempty"`
	Priority      Priority          `json:"priority"`
	Status        Status            `json:"status"`
	SourceService string            `json:"sourceService,omitempty"`
	ExternalID    string            `json:"externalId,omitempty"`
	Error         string            `json:"error,omitempty"`
	RetryCount    int               `json:"retryCount"`
	SentAt        *time.Time        `json:"sentAt,omitempty"`
	DeliveredAt   *time.Time        `json:"deliveredAt,omitempty"`
	ReadAt        *time.Time        `json:"readAt,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewNotification builds a pending Notification for one channel. id is
// caller-supplied so the DispatchService can pass the idempotency key
// (or a freshly minted uuid string) as the row identity.
func NewNotification(id, tenantID, accountID string, typ NotificationType, channel Channel, title, body string, data map[string]string, priority Priority, sourceService string) *Notification {
	now := time.Now()
	if data == nil {
		data = make(map[string]string)
	}
	return &Notification{
		ID:            id,
		TenantID:      tenantID,
		AccountID:     accountID,
		Type:          typ,
		Channel:       channel,
		Title:         title,
		Body:          body,
		Data:          data,
		Priority:      priority,
		Status:        StatusPending,
		SourceService: sourceService,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MarkSent transitions the notification to sent, stamping sentAt.
func (n *Notification) MarkSent(externalID string) {
	now := time.Now()
	n.Status = StatusSent
	n.ExternalID = externalID
	n.SentAt = &now
	n.UpdatedAt = now
}

// MarkDelivered transitions the notification to delivered, stamping
// both sentAt (if not already set) and deliveredAt, matching the in-app
// adapter's send path which delivers synchronously.
func (n *Notification) MarkDelivered(externalID string) {
	now := time.Now()
	if n.SentAt == nil {
		n.SentAt = &now
	}
	n.Status = StatusDelivered
	n.ExternalID = externalID
	n.DeliveredAt = &now
	n.UpdatedAt = now
}

// MarkFailed transitions the notification to failed, recording why.
func (n *Notification) MarkFailed(reason string) {
	n.Status = StatusFailed
	n.Error = reason
	n.UpdatedAt = time.Now()
}

// MarkRead transitions the notification to read. Only meaningful for
// in_app channel rows, since only the mark-read path calls this.
func (n *Notification) MarkRead() {
	now := time.Now()
	n.Status = StatusRead
	n.ReadAt = &now
	n.UpdatedAt = now
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
