package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepmyapp/notification/internal/domain"
)

// DeviceTokenRepository implements domain.DeviceTokenRepository using PostgreSQL.
type DeviceTokenRepository struct {
	pool *pgxpool.Pool
}

func NewDeviceTokenRepository(pool *pgxpool.Pool) *DeviceTokenRepository {
	return &DeviceTokenRepository{pool: pool}
}

// registerByDeviceQuery upserts on (tenant_id, account_id, device_id), the
// target used whenever the caller identifies the physical device: a token
// refresh (same device, rotated token, e.g. after an app reinstall) updates
// the existing row in place instead of leaving the stale token registered
// alongside a new one. Requires the partial unique index
// device_tokens_tenant_account_device_idx.
const registerByDeviceQuery = `
	INSERT INTO device_tokens (id, tenant_id, account_id, token, platform, device_id, device_info, last_used_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (tenant_id, account_id, device_id) WHERE device_id <> '' DO UPDATE SET
		token = EXCLUDED.token,
		platform = EXCLUDED.platform,
		device_info = EXCLUDED.device_info,
		last_used_at = EXCLUDED.last_used_at
	RETURNING id
`

// registerByTokenQuery upserts on the token string alone, the fallback used
// when the caller has no stable device identifier to key on.
const registerByTokenQuery = `
	INSERT INTO device_tokens (id, tenant_id, account_id, token, platform, device_id, device_info, last_used_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (token) DO UPDATE SET
		tenant_id = EXCLUDED.tenant_id,
		account_id = EXCLUDED.account_id,
		platform = EXCLUDED.platform,
		device_id = EXCLUDED.device_id,
		device_info = EXCLUDED.device_info,
		last_used_at = EXCLUDED.last_used_at
	RETURNING id
`

// Register upserts a device token. When the caller supplies a deviceId the
// conflict target is (tenant_id, account_id, device_id), so rotating a
// token for a known device updates its existing row; otherwise it falls
// back to the token string itself as the conflict target.
func (r *DeviceTokenRepository) Register(ctx context.Context, token *domain.DeviceToken) (uuid.UUID, error) {
	deviceInfo, err := json.Marshal(token.DeviceInfo)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal device info: %w", err)
	}

	query := registerByTokenQuery
	if token.DeviceID != "" {
		query = registerByDeviceQuery
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, query,
		token.ID, token.TenantID, token.AccountID, token.Token, token.Platform,
		token.DeviceID, deviceInfo, token.LastUsedAt, token.CreatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to register device token: %w", err)
	}

	return id, nil
}

// Unregister removes one device token scoped to its owning account,
// reporting whether a row was actually deleted.
func (r *DeviceTokenRepository) Unregister(ctx context.Context, tenantID, accountID, token string) (bool, error) {
	query := `DELETE FROM device_tokens WHERE tenant_id = $1 AND account_id = $2 AND token = $3`

	result, err := r.pool.Exec(ctx, query, tenantID, accountID, token)
	if err != nil {
		return false, fmt.Errorf("failed to unregister device token: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// ListForAccount returns every device token registered for an account.
func (r *DeviceTokenRepository) ListForAccount(ctx context.Context, tenantID, accountID string) ([]*domain.DeviceToken, error) {
	query := `
		SELECT id, tenant_id, account_id, token, platform, device_id, device_info, last_used_at, created_at
		FROM device_tokens
		WHERE tenant_id = $1 AND account_id = $2
		ORDER BY last_used_at DESC
	`

	rows, err := r.pool.Query(ctx, query, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.DeviceToken
	for rows.Next() {
		t, err := scanDeviceToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// ActiveTokens returns just the token strings for an account, the
// shape the push adapter needs to build a multicast send.
func (r *DeviceTokenRepository) ActiveTokens(ctx context.Context, tenantID, accountID string) ([]string, error) {
	query := `SELECT token FROM device_tokens WHERE tenant_id = $1 AND account_id = $2`

	rows, err := r.pool.Query(ctx, query, tenantID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// EvictByToken removes a device token by its token string, used when
// a push provider reports the token as invalid or unregistered.
func (r *DeviceTokenRepository) EvictByToken(ctx context.Context, token string) error {
	query := `DELETE FROM device_tokens WHERE token = $1`

	result, err := r.pool.Exec(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to evict device token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewErrNotFound("device_token", token)
	}
	return nil
}

func scanDeviceToken(rows pgx.Rows) (*domain.DeviceToken, error) {
	var t domain.DeviceToken
	var deviceInfo []byte

	err := rows.Scan(&t.ID, &t.TenantID, &t.AccountID, &t.Token, &t.Platform, &t.DeviceID, &deviceInfo, &t.LastUsedAt, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan device token: %w", err)
	}

	if len(deviceInfo) > 0 {
		if err := json.Unmarshal(deviceInfo, &t.DeviceInfo); err != nil {
			t.DeviceInfo = make(map[string]string)
		}
	}

	return &t, nil
}
