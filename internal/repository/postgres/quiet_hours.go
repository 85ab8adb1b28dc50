package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/prepmyapp/notification/internal/domain"
	"github.com/prepmyapp/notification/internal/infrastructure/cache"
)

// QuietHoursRepository implements domain.QuietHoursRepository using
// PostgreSQL, following the same get-with-default/upsert shape as
// PreferenceRepository, including the optional read-through cache.
type QuietHoursRepository struct {
	pool  *pgxpool.Pool
	cache *cache.Store
	log   zerolog.Logger
}

func NewQuietHoursRepository(pool *pgxpool.Pool, cacheStore *cache.Store, log zerolog.Logger) *QuietHoursRepository {
	return &QuietHoursRepository{
		pool:  pool,
		cache: cacheStore,
		log:   log.With().Str("component", "quiet_hours_repository").Logger(),
	}
}

func quietHoursCacheKey(tenantID, accountID string) cache.Key {
	return cache.Key{Namespace: "quiet_hours", ID: cache.Hash(tenantID, accountID)}
}

// Get implements domain.QuietHoursRepository.Get. A lookup failure
// degrades to the default config with FallbackUsed set, rather than
// suppressing notifications on an infrastructure error.
func (r *QuietHoursRepository) Get(ctx context.Context, tenantID, accountID string) domain.QuietHoursResult {
	key := quietHoursCacheKey(tenantID, accountID)

	if r.cache.Configured() {
		var cached domain.QuietHoursResult
		if hit, err := r.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached
		}
	}

	query := `
		SELECT enabled, start_time, end_time, timezone
		FROM quiet_hours
		WHERE tenant_id = $1 AND account_id = $2
	`

	var config domain.QuietHoursConfig
	config.TenantID = tenantID
	config.AccountID = accountID

	err := r.pool.QueryRow(ctx, query, tenantID, accountID).Scan(
		&config.Enabled, &config.StartTime, &config.EndTime, &config.Timezone,
	)

	if err == pgx.ErrNoRows {
		return domain.QuietHoursResult{Config: domain.DefaultQuietHoursConfig(tenantID, accountID)}
	}
	if err != nil {
		r.log.Warn().Err(err).Str("tenant_id", tenantID).Str("account_id", accountID).Msg("quiet hours lookup failed, using defaults")
		return domain.QuietHoursResult{Config: domain.DefaultQuietHoursConfig(tenantID, accountID), FallbackUsed: true}
	}

	result := domain.QuietHoursResult{Config: config}

	if r.cache.Configured() {
		if err := r.cache.SetJSON(ctx, key, result); err != nil {
			r.log.Warn().Err(err).Msg("failed to populate quiet hours cache")
		}
	}

	return result
}

// Update implements domain.QuietHoursRepository.Update.
func (r *QuietHoursRepository) Update(ctx context.Context, config domain.QuietHoursConfig) error {
	query := `
		INSERT INTO quiet_hours (tenant_id, account_id, enabled, start_time, end_time, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, account_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			timezone = EXCLUDED.timezone,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, config.TenantID, config.AccountID, config.Enabled, config.StartTime, config.EndTime, config.Timezone, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert quiet hours: %w", err)
	}

	if r.cache.Configured() {
		if err := r.cache.Invalidate(ctx, quietHoursCacheKey(config.TenantID, config.AccountID)); err != nil {
			r.log.Warn().Err(err).Msg("failed to invalidate quiet hours cache")
		}
	}

	return nil
}
