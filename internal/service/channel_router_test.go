package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepmyapp/notification/internal/domain"
)

type fakeAdapter struct {
	channel domain.Channel
	calls   []domain.NormalizedRequest
	result  domain.AdapterResult
}

func newFakeAdapter(c domain.Channel) *fakeAdapter {
	return &fakeAdapter{channel: c, result: domain.AdapterResult{Success: true}}
}

func (a *fakeAdapter) Channel() domain.Channel { return a.channel }

func (a *fakeAdapter) Send(ctx context.Context, req domain.NormalizedRequest) domain.AdapterResult {
	a.calls = append(a.calls, req)
	return a.result
}

type fakePreferenceRepository struct {
	result domain.PreferenceResult
}

func (f *fakePreferenceRepository) Get(ctx context.Context, tenantID, accountID string) domain.PreferenceResult {
	return f.result
}

func (f *fakePreferenceRepository) Update(ctx context.Context, tenantID, accountID string, channelPrefs []domain.ChannelPreference, typePrefs []domain.TypePreference) error {
	return nil
}

type fakeQuietHoursRepository struct {
	config domain.QuietHoursConfig
}

func (f *fakeQuietHoursRepository) Get(ctx context.Context, tenantID, accountID string) domain.QuietHoursResult {
	return domain.QuietHoursResult{Config: f.config}
}

func (f *fakeQuietHoursRepository) Update(ctx context.Context, config domain.QuietHoursConfig) error {
	f.config = config
	return nil
}

func newTestRouter(qh domain.QuietHoursConfig, adapters ...domain.ChannelAdapter) (*ChannelRouter, *fakePreferenceRepository) {
	prefs := &fakePreferenceRepository{result: domain.PreferenceResult{
		ChannelPrefs: domain.DefaultChannelPreferences("t1", "a1"),
	}}
	quietHours := &fakeQuietHoursRepository{config: qh}
	return NewChannelRouter(adapters, prefs, quietHours, zerolog.Nop()), prefs
}

func TestChannelRouter_Route_ResultSubsetOfRequested(t *testing.T) {
	inApp := newFakeAdapter(domain.ChannelInApp)
	push := newFakeAdapter(domain.ChannelPush)
	email := newFakeAdapter(domain.ChannelEmail)

	router, _ := newTestRouter(domain.QuietHoursConfig{Enabled: false}, inApp, push, email)

	requested := []domain.Channel{domain.ChannelPush, domain.ChannelEmail}
	req := domain.NormalizedRequest{TenantID: "t1", AccountID: "a1", Type: domain.TypeSystem, Priority: domain.PriorityNormal}

	results := router.Route(context.Background(), req, requested)

	assert.LessOrEqual(t, len(results), len(requested))
	for _, r := range results {
		assert.Contains(t, requested, r.Channel)
	}
}

func TestChannelRouter_Route_MarketingDefaultsToEmailOnly(t *testing.T) {
	inApp := newFakeAdapter(domain.ChannelInApp)
	push := newFakeAdapter(domain.ChannelPush)
	email := newFakeAdapter(domain.ChannelEmail)

	router, _ := newTestRouter(domain.QuietHoursConfig{Enabled: false}, inApp, push, email)

	requested := []domain.Channel{domain.ChannelInApp, domain.ChannelPush, domain.ChannelEmail}
	req := domain.NormalizedRequest{TenantID: "t1", AccountID: "a1", Type: domain.TypeMarketing, Priority: domain.PriorityNormal}

	results := router.Route(context.Background(), req, requested)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ChannelEmail, results[0].Channel)
	assert.Empty(t, inApp.calls)
	assert.Empty(t, push.calls)
	assert.Len(t, email.calls, 1)
}

func TestChannelRouter_Route_UrgentBypassesQuietHours(t *testing.T) {
	push := newFakeAdapter(domain.ChannelPush)
	email := newFakeAdapter(domain.ChannelEmail)

	qh := domain.QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"}
	router, _ := newTestRouter(qh, push, email)

	frozen := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	restore := freezeTime(frozen)
	defer restore()

	requested := []domain.Channel{domain.ChannelPush, domain.ChannelEmail}
	req := domain.NormalizedRequest{TenantID: "t1", AccountID: "a1", Type: domain.TypeSecurityAlert, Priority: domain.PriorityUrgent}

	results := router.Route(context.Background(), req, requested)

	require.Len(t, results, 2)
	assert.Len(t, push.calls, 1)
	assert.Len(t, email.calls, 1)
}

func TestChannelRouter_Route_NonUrgentDuringQuietHoursFallsBackToInApp(t *testing.T) {
	inApp := newFakeAdapter(domain.ChannelInApp)
	push := newFakeAdapter(domain.ChannelPush)
	email := newFakeAdapter(domain.ChannelEmail)

	qh := domain.QuietHoursConfig{Enabled: true, StartTime: "22:00", EndTime: "08:00", Timezone: "UTC"}
	router, _ := newTestRouter(qh, inApp, push, email)

	frozen := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	restore := freezeTime(frozen)
	defer restore()

	requested := []domain.Channel{domain.ChannelInApp, domain.ChannelPush, domain.ChannelEmail}
	req := domain.NormalizedRequest{TenantID: "t1", AccountID: "a1", Type: domain.TypeSystem, Priority: domain.PriorityHigh}

	results := router.Route(context.Background(), req, requested)

	require.Len(t, results, 1)
	assert.Equal(t, domain.ChannelInApp, results[0].Channel)
	assert.Empty(t, push.calls)
	assert.Empty(t, email.calls)
}

// freezeTime overrides the package's timeNow indirection for the
// duration of a test and returns a restore func.
func freezeTime(at time.Time) func() {
	original := timeNow
	timeNow = func() time.Time { return at }
	return func() { timeNow = original }
}
