package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
)

// ChannelResult pairs a channel with the outcome of dispatching to it,
// preserving the order of the requested channels.
type ChannelResult struct {
	Channel domain.Channel
	Result  domain.AdapterResult
}

// ChannelRouter computes the effective channel set for a request and
// fans out to the registered ChannelAdapters. Adapters are looked up
// through a registry keyed by channel enum rather than four hard-wired
// call sites, which avoids an import cycle between this package and
// the channel package.
type ChannelRouter struct {
	adapters   map[domain.Channel]domain.ChannelAdapter
	prefs      domain.PreferenceRepository
	quietHours domain.QuietHoursRepository
	engine     *domain.QuietHoursEngine
	log        zerolog.Logger
}

func NewChannelRouter(adapters []domain.ChannelAdapter, prefs domain.PreferenceRepository, quietHours domain.QuietHoursRepository, log zerolog.Logger) *ChannelRouter {
	registry := make(map[domain.Channel]domain.ChannelAdapter, len(adapters))
	for _, a := range adapters {
		registry[a.Channel()] = a
	}
	return &ChannelRouter{
		adapters:   registry,
		prefs:      prefs,
		quietHours: quietHours,
		engine:     domain.NewQuietHoursEngine(),
		log:        log.With().Str("component", "channel_router").Logger(),
	}
}

// Route resolves the enabled channel set from preferences, applies
// quiet-hours policy, and fans out to each channel's adapter.
func (r *ChannelRouter) Route(ctx context.Context, req domain.NormalizedRequest, requestedChannels []domain.Channel) []ChannelResult {
	prefResult := r.prefs.Get(ctx, req.TenantID, req.AccountID)
	enabled := domain.EnabledChannelsForType(prefResult.ChannelPrefs, prefResult.TypePrefs, req.Type, requestedChannels)
	if len(enabled) == 0 {
		return nil
	}

	if req.Priority != domain.PriorityUrgent {
		qhResult := r.quietHours.Get(ctx, req.TenantID, req.AccountID)
		if r.engine.IsInQuietHours(qhResult.Config, timeNow()) {
			if containsChannel(enabled, domain.ChannelInApp) {
				return []ChannelResult{r.sendOne(ctx, domain.ChannelInApp, req)}
			}
			return nil
		}
	}

	return r.fanOut(ctx, enabled, req)
}

// fanOut invokes each channel's adapter concurrently, returning results
// in the same order as channels.
func (r *ChannelRouter) fanOut(ctx context.Context, channels []domain.Channel, req domain.NormalizedRequest) []ChannelResult {
	results := make([]ChannelResult, len(channels))

	var wg sync.WaitGroup
	for i, c := range channels {
		wg.Add(1)
		go func(i int, c domain.Channel) {
			defer wg.Done()
			results[i] = r.sendOne(ctx, c, req)
		}(i, c)
	}
	wg.Wait()

	return results
}

func (r *ChannelRouter) sendOne(ctx context.Context, c domain.Channel, req domain.NormalizedRequest) ChannelResult {
	adapter, ok := r.adapters[c]
	if !ok {
		return ChannelResult{Channel: c, Result: domain.AdapterResult{Success: false, Error: "no adapter registered for channel"}}
	}
	return ChannelResult{Channel: c, Result: adapter.Send(ctx, req)}
}

// SendToChannel dispatches directly to one channel, bypassing
// preference and quiet-hours policy.
func (r *ChannelRouter) SendToChannel(ctx context.Context, c domain.Channel, req domain.NormalizedRequest) ChannelResult {
	return r.sendOne(ctx, c, req)
}

// RecommendedChannels returns the default channel set for a
// notification type and priority when the caller doesn't specify one.
func RecommendedChannels(t domain.NotificationType, priority domain.Priority) []domain.Channel {
	if priority.AtLeast(domain.PriorityHigh) {
		return []domain.Channel{domain.ChannelInApp, domain.ChannelPush, domain.ChannelEmail}
	}
	if t.IsSecurityClassified() {
		return []domain.Channel{domain.ChannelInApp, domain.ChannelPush, domain.ChannelEmail}
	}
	if t == domain.TypeMarketing {
		return []domain.Channel{domain.ChannelEmail}
	}
	return []domain.Channel{domain.ChannelInApp, domain.ChannelEmail}
}

func containsChannel(channels []domain.Channel, target domain.Channel) bool {
	for _, c := range channels {
		if c == target {
			return true
		}
	}
	return false
}
