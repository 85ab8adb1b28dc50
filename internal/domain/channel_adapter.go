package domain

import "context"

// NormalizedRequest is the channel-agnostic delivery request every
// ChannelAdapter consumes.
type NormalizedRequest struct {
	NotificationID string
	TenantID       string
	AccountID      string
	Type           NotificationType
	Title          string
	Body           string
	Data           map[string]string
	Locale         string
	Priority       Priority
	SourceService  string
}

// AdapterResult is the uniform shape every ChannelAdapter returns.
type AdapterResult struct {
	Success    bool
	ExternalID string
	Error      string
}

// ChannelAdapter is the capability every one of the four channel
// adapters implements. The ChannelRouter holds a registry keyed by
// Channel rather than hard-wiring four call sites.
type ChannelAdapter interface {
	Channel() Channel
	Send(ctx context.Context, req NormalizedRequest) AdapterResult
}
