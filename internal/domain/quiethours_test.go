package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuietHoursEngine_IsInQuietHours(t *testing.T) {
	engine := NewQuietHoursEngine()

	tests := []struct {
		name   string
		config QuietHoursConfig
		at     time.Time
		want   bool
	}{
		{
			name:   "disabled always false",
			config: QuietHoursConfig{Enabled: false, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"},
			at:     time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC),
			want:   false,
		},
		{
			name:   "exact start time is inside",
			config: QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"},
			at:     time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC),
			want:   true,
		},
		{
			name:   "exact end time is outside",
			config: QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"},
			at:     time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
			want:   false,
		},
		{
			name:   "overnight window at midnight is inside",
			config: QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"},
			at:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			want:   true,
		},
		{
			name:   "same-day window at end time is outside",
			config: QuietHoursConfig{Enabled: true, StartTime: "13:00", EndTime: "15:00", Timezone: "UTC"},
			at:     time.Date(2026, 1, 1, 15, 0, 0, 0, time.UTC),
			want:   false,
		},
		{
			name:   "same-day window mid-range is inside",
			config: QuietHoursConfig{Enabled: true, StartTime: "13:00", EndTime: "15:00", Timezone: "UTC"},
			at:     time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC),
			want:   true,
		},
		{
			name:   "unloadable timezone falls back to UTC",
			config: QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "Not/AZone"},
			at:     time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.IsInQuietHours(tt.config, tt.at)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuietHoursEngine_IsInQuietHours_Pure(t *testing.T) {
	engine := NewQuietHoursEngine()
	config := QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"}
	at := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)

	first := engine.IsInQuietHours(config, at)
	second := engine.IsInQuietHours(config, at)

	assert.Equal(t, first, second)
}

func TestValidateHHMM(t *testing.T) {
	require.NoError(t, ValidateHHMM("00:00"))
	require.NoError(t, ValidateHHMM("23:59"))
	require.NoError(t, ValidateHHMM("9:05"))
	require.Error(t, ValidateHHMM("24:00"))
	require.Error(t, ValidateHHMM("12:60"))
	require.Error(t, ValidateHHMM("noon"))
}
