package domain

// ChannelPreference is a per-account, per-channel enable flag. Absence
// of a row for a channel means "enabled".
type ChannelPreference struct {
	TenantID  string  `json:"tenantId"`
	AccountID string  `json:"accountId"`
	Channel   Channel `json:"channel"`
	Enabled   bool    `json:"enabled"`
}

// TypePreference is a per-account whitelist of channels enabled for one
// notification type. Absence means "all channels enabled" except for
// the types in defaultTypeChannels: marketing defaults to email only, and
// system, security_alert and login_alert to in_app, push and email.
type TypePreference struct {
	TenantID        string    `json:"tenantId"`
	AccountID       string    `json:"accountId"`
	Type            NotificationType `json:"type"`
	EnabledChannels []Channel `json:"enabledChannels"`
}

// defaultTypeChannels lists the types whose default (no stored row)
// enabled-channel set is narrower than "all channels".
var defaultTypeChannels = map[NotificationType][]Channel{
	TypeSystem:        {ChannelInApp, ChannelPush, ChannelEmail},
	TypeSecurityAlert: {ChannelInApp, ChannelPush, ChannelEmail},
	TypeLoginAlert:    {ChannelInApp, ChannelPush, ChannelEmail},
	TypeMarketing:     {ChannelEmail},
}

// DefaultEnabledChannelsForType returns the channel whitelist used when
// no TypePreference row exists for (tenant, account, type).
func DefaultEnabledChannelsForType(t NotificationType) []Channel {
	if channels, ok := defaultTypeChannels[t]; ok {
		return append([]Channel(nil), channels...)
	}
	return append([]Channel(nil), AllChannels...)
}

// DefaultChannelPreferences returns all four channels enabled, the
// default used when no ChannelPreference rows exist for an account.
func DefaultChannelPreferences(tenantID, accountID string) []ChannelPreference {
	prefs := make([]ChannelPreference, 0, len(AllChannels))
	for _, c := range AllChannels {
		prefs = append(prefs, ChannelPreference{TenantID: tenantID, AccountID: accountID, Channel: c, Enabled: true})
	}
	return prefs
}

// PreferenceResult wraps a read-side PreferenceStore lookup with an
// explicit fallback flag, so callers and tests can tell a default was
// substituted for a storage failure without inferring it from a nil
// error.
type PreferenceResult struct {
	ChannelPrefs []ChannelPreference
	TypePrefs    []TypePreference
	FallbackUsed bool
}

// intersectPreserveOrder returns the elements of requested that also
// appear in both allowed sets, preserving requested's ordering.
func intersectPreserveOrder(requested []Channel, allowedChannel, allowedType map[Channel]bool) []Channel {
	out := make([]Channel, 0, len(requested))
	for _, c := range requested {
		if allowedChannel[c] && allowedType[c] {
			out = append(out, c)
		}
	}
	return out
}

// EnabledChannelsForType computes the effective channel set for
// (channelPrefs, typePrefs, type, requested). channelPrefs/typePrefs
// may be nil, in which case the documented defaults apply.
func EnabledChannelsForType(channelPrefs []ChannelPreference, typePrefs []TypePreference, t NotificationType, requested []Channel) []Channel {
	channelAllowed := make(map[Channel]bool, len(AllChannels))
	for _, c := range AllChannels {
		channelAllowed[c] = true
	}
	for _, cp := range channelPrefs {
		channelAllowed[cp.Channel] = cp.Enabled
	}

	var typeAllowedList []Channel
	found := false
	for _, tp := range typePrefs {
		if tp.Type == t {
			typeAllowedList = tp.EnabledChannels
			found = true
			break
		}
	}
	if !found {
		typeAllowedList = DefaultEnabledChannelsForType(t)
	}
	typeAllowed := make(map[Channel]bool, len(typeAllowedList))
	for _, c := range typeAllowedList {
		typeAllowed[c] = true
	}

	return intersectPreserveOrder(requested, channelAllowed, typeAllowed)
}
