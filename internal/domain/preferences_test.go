package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabledChannelsForType_MarketingDefaults(t *testing.T) {
	requested := []Channel{ChannelInApp, ChannelPush, ChannelEmail}

	got := EnabledChannelsForType(nil, nil, TypeMarketing, requested)

	assert.Equal(t, []Channel{ChannelEmail}, got)
}

func TestEnabledChannelsForType_SubsetOfRequested(t *testing.T) {
	requested := []Channel{ChannelPush, ChannelEmail, ChannelSMS}

	got := EnabledChannelsForType(nil, nil, TypeSystem, requested)

	assert.LessOrEqual(t, len(got), len(requested))
	for _, c := range got {
		assert.Contains(t, requested, c)
	}
}

func TestEnabledChannelsForType_ChannelPreferenceDisablesChannel(t *testing.T) {
	channelPrefs := []ChannelPreference{
		{TenantID: "t1", AccountID: "a1", Channel: ChannelPush, Enabled: false},
	}
	requested := []Channel{ChannelInApp, ChannelPush, ChannelEmail}

	got := EnabledChannelsForType(channelPrefs, nil, TypeSystem, requested)

	assert.NotContains(t, got, ChannelPush)
	assert.Contains(t, got, ChannelInApp)
	assert.Contains(t, got, ChannelEmail)
}

func TestEnabledChannelsForType_TypePreferenceOverridesDefault(t *testing.T) {
	typePrefs := []TypePreference{
		{TenantID: "t1", AccountID: "a1", Type: TypeMarketing, EnabledChannels: []Channel{ChannelInApp, ChannelEmail}},
	}
	requested := []Channel{ChannelInApp, ChannelPush, ChannelEmail}

	got := EnabledChannelsForType(nil, typePrefs, TypeMarketing, requested)

	assert.Equal(t, []Channel{ChannelInApp, ChannelEmail}, got)
}

func TestDefaultChannelPreferences_AllEnabled(t *testing.T) {
	prefs := DefaultChannelPreferences("t1", "a1")

	assert.Len(t, prefs, len(AllChannels))
	for _, p := range prefs {
		assert.True(t, p.Enabled)
	}
}
