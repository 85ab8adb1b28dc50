package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
	"github.com/prepmyapp/notification/internal/infrastructure/cache"
)

// PreferenceRepository implements domain.PreferenceRepository using
// PostgreSQL, with an optional Redis read-through cache in front of Get
// (preferences are read on every dispatch but change rarely).
type PreferenceRepository struct {
	pool  *pgxpool.Pool
	cache *cache.Store
	log   zerolog.Logger
}

func NewPreferenceRepository(pool *pgxpool.Pool, cacheStore *cache.Store, log zerolog.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		pool:  pool,
		cache: cacheStore,
		log:   log.With().Str("component", "preference_repository").Logger(),
	}
}

func preferenceCacheKey(tenantID, accountID string) cache.Key {
	return cache.Key{Namespace: "preferences", ID: cache.Hash(tenantID, accountID)}
}

// Get implements domain.PreferenceRepository.Get. A cache miss or cache
// read failure falls through to the database; a database read failure
// degrades to defaults with FallbackUsed set, following a fail-open
// policy for preference lookups.
func (r *PreferenceRepository) Get(ctx context.Context, tenantID, accountID string) domain.PreferenceResult {
	key := preferenceCacheKey(tenantID, accountID)

	if r.cache.Configured() {
		var cached domain.PreferenceResult
		if hit, err := r.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached
		}
	}

	result, err := r.getFromDB(ctx, tenantID, accountID)
	if err != nil {
		r.log.Warn().Err(err).Str("tenant_id", tenantID).Str("account_id", accountID).Msg("preference lookup failed, using defaults")
		return domain.PreferenceResult{
			ChannelPrefs: domain.DefaultChannelPreferences(tenantID, accountID),
			FallbackUsed: true,
		}
	}

	if r.cache.Configured() {
		if err := r.cache.SetJSON(ctx, key, result); err != nil {
			r.log.Warn().Err(err).Msg("failed to populate preference cache")
		}
	}

	return result
}

func (r *PreferenceRepository) getFromDB(ctx context.Context, tenantID, accountID string) (domain.PreferenceResult, error) {
	channelPrefs, err := r.channelPreferences(ctx, tenantID, accountID)
	if err != nil {
		return domain.PreferenceResult{}, err
	}
	if len(channelPrefs) == 0 {
		channelPrefs = domain.DefaultChannelPreferences(tenantID, accountID)
	}

	typePrefs, err := r.typePreferences(ctx, tenantID, accountID)
	if err != nil {
		return domain.PreferenceResult{}, err
	}

	return domain.PreferenceResult{ChannelPrefs: channelPrefs, TypePrefs: typePrefs}, nil
}

func (r *PreferenceRepository) channelPreferences(ctx context.Context, tenantID, accountID string) ([]domain.ChannelPreference, error) {
	query := `
		SELECT tenant_id, account_id, channel, enabled
		FROM channel_preferences
		WHERE tenant_id = $1 AND account_id = $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel preferences: %w", err)
	}
	defer rows.Close()

	var prefs []domain.ChannelPreference
	for rows.Next() {
		var p domain.ChannelPreference
		if err := rows.Scan(&p.TenantID, &p.AccountID, &p.Channel, &p.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan channel preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

func (r *PreferenceRepository) typePreferences(ctx context.Context, tenantID, accountID string) ([]domain.TypePreference, error) {
	query := `
		SELECT tenant_id, account_id, type, enabled_channels
		FROM type_preferences
		WHERE tenant_id = $1 AND account_id = $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query type preferences: %w", err)
	}
	defer rows.Close()

	var prefs []domain.TypePreference
	for rows.Next() {
		var p domain.TypePreference
		var channelsRaw []byte
		if err := rows.Scan(&p.TenantID, &p.AccountID, &p.Type, &channelsRaw); err != nil {
			return nil, fmt.Errorf("failed to scan type preference: %w", err)
		}
		if err := json.Unmarshal(channelsRaw, &p.EnabledChannels); err != nil {
			continue
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// Update implements domain.PreferenceRepository.Update, replacing the
// caller-supplied rows with upserts and invalidating the cache entry.
func (r *PreferenceRepository) Update(ctx context.Context, tenantID, accountID string, channelPrefs []domain.ChannelPreference, typePrefs []domain.TypePreference) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	for _, p := range channelPrefs {
		_, err := tx.Exec(ctx, `
			INSERT INTO channel_preferences (tenant_id, account_id, channel, enabled, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, account_id, channel) DO UPDATE SET
				enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at
		`, tenantID, accountID, p.Channel, p.Enabled, now)
		if err != nil {
			return fmt.Errorf("failed to upsert channel preference: %w", err)
		}
	}

	for _, p := range typePrefs {
		channelsRaw, err := json.Marshal(p.EnabledChannels)
		if err != nil {
			return fmt.Errorf("failed to marshal enabled channels: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO type_preferences (tenant_id, account_id, type, enabled_channels, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, account_id, type) DO UPDATE SET
				enabled_channels = EXCLUDED.enabled_channels, updated_at = EXCLUDED.updated_at
		`, tenantID, accountID, p.Type, channelsRaw, now)
		if err != nil {
			return fmt.Errorf("failed to upsert type preference: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit preference update: %w", err)
	}

	if r.cache.Configured() {
		if err := r.cache.Invalidate(ctx, preferenceCacheKey(tenantID, accountID)); err != nil {
			r.log.Warn().Err(err).Msg("failed to invalidate preference cache")
		}
	}

	return nil
}
