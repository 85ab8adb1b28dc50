package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeviceToken is a registered push-provider credential for one account
// installation. token is globally unique; (tenantID, accountID,
// deviceID) is unique when deviceID is non-empty.
type DeviceToken struct {
	ID         uuid.UUID         `json:"id"`
	TenantID   string            `json:"tenantId"`
	AccountID  string            `json:"accountId"`
	Token      string            `json:"token"`
	Platform   Platform          `json:"platform"`
	DeviceID   string            `json:"deviceId,omitempty"`
	DeviceInfo map[string]string `json:"deviceInfo,omitempty"`
	LastUsedAt time.Time         `json:"lastUsedAt"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// NewDeviceToken builds a fresh DeviceToken row ready for upsert.
func NewDeviceToken(tenantID, accountID, token string, platform Platform, deviceID string, deviceInfo map[string]string) *DeviceToken {
	now := time.Now()
	if deviceInfo == nil {
		deviceInfo = make(map[string]string)
	}
	return &DeviceToken{
		ID:         uuid.New(),
		TenantID:   tenantID,
		AccountID:  accountID,
		Token:      token,
		Platform:   platform,
		DeviceID:   deviceID,
		DeviceInfo: deviceInfo,
		LastUsedAt: now,
		CreatedAt:  now,
	}
}
