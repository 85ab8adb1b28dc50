package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepmyapp/notification/internal/domain"
)

const pgUniqueViolation = "23505"

// NotificationRepository implements domain.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create inserts a new notification. A primary-key unique-violation
// means a concurrent caller already inserted this id (an idempotency
// key race); it is translated to domain.ErrIdempotentConflict so
// InAppAdapter.Send can fall back to a GetByID read instead of surfacing
// a generic database error.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, tenant_id, account_id, type, channel, title, body, data,
			priority, status, source_service, external_id, error, retry_count,
			sent_at, delivered_at, read_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err = r.pool.Exec(ctx, query,
		n.ID, n.TenantID, n.AccountID, n.Type, n.Channel, n.Title, n.Body, data,
		n.Priority, n.Status, n.SourceService, n.ExternalID, n.Error, n.RetryCount,
		n.SentAt, n.DeliveredAt, n.ReadAt, n.CreatedAt, n.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrIdempotentConflict
		}
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	query := `
		SELECT id, tenant_id, account_id, type, channel, title, body, data,
			priority, status, source_service, external_id, error, retry_count,
			sent_at, delivered_at, read_at, created_at, updated_at
		FROM notifications
		WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	return scanNotification(row)
}

func (r *NotificationRepository) List(ctx context.Context, tenantID, accountID string, opts domain.ListOptions) (*domain.NotificationList, error) {
	baseQuery := `FROM notifications WHERE tenant_id = $1 AND account_id = $2`
	args := []interface{}{tenantID, accountID}
	argIndex := 3

	if opts.Channel != nil {
		baseQuery += fmt.Sprintf(" AND channel = $%d", argIndex)
		args = append(args, *opts.Channel)
		argIndex++
	}
	if opts.UnreadOnly {
		baseQuery += " AND read_at IS NULL"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	var unread int64
	unreadQuery := `SELECT COUNT(*) FROM notifications WHERE tenant_id = $1 AND account_id = $2 AND read_at IS NULL`
	if err := r.pool.QueryRow(ctx, unreadQuery, tenantID, accountID).Scan(&unread); err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	page, pageSize := opts.Page, opts.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	selectQuery := `
		SELECT id, tenant_id, account_id, type, channel, title, body, data,
			priority, status, source_service, external_id, error, retry_count,
			sent_at, delivered_at, read_at, created_at, updated_at
	` + baseQuery + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var items []*domain.Notification
	for rows.Next() {
		n, err := scanNotificationFromRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return &domain.NotificationList{Items: items, TotalCount: total, UnreadCount: unread}, nil
}

func (r *NotificationRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, externalID, errMsg string) error {
	query := `
		UPDATE notifications
		SET status = $2, external_id = $3, error = $4, updated_at = $5,
			sent_at = CASE WHEN $2 = 'sent' AND sent_at IS NULL THEN $5 ELSE sent_at END,
			delivered_at = CASE WHEN $2 = 'delivered' THEN $5 ELSE delivered_at END
		WHERE id = $1
	`

	now := time.Now()
	result, err := r.pool.Exec(ctx, query, id, status, externalID, errMsg, now)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewErrNotFound("notification", id)
	}
	return nil
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, tenantID, accountID string, ids []string) (int64, error) {
	query := `
		UPDATE notifications
		SET status = 'read', read_at = $3, updated_at = $3
		WHERE tenant_id = $1 AND account_id = $2 AND read_at IS NULL AND id = ANY($4)
	`

	now := time.Now()
	result, err := r.pool.Exec(ctx, query, tenantID, accountID, now, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, tenantID, accountID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE tenant_id = $1 AND account_id = $2 AND channel = 'in_app' AND read_at IS NULL
	`

	var count int64
	err := r.pool.QueryRow(ctx, query, tenantID, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	n, data, err := scanNotificationFields(row)
	if err == pgx.ErrNoRows {
		return nil, domain.NewErrNotFound("notification", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	unmarshalNotificationData(n, data)
	return n, nil
}

func scanNotificationFromRows(rows pgx.Rows) (*domain.Notification, error) {
	n, data, err := scanNotificationFields(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	unmarshalNotificationData(n, data)
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotificationFields(row rowScanner) (*domain.Notification, []byte, error) {
	var n domain.Notification
	var data []byte

	err := row.Scan(
		&n.ID, &n.TenantID, &n.AccountID, &n.Type, &n.Channel, &n.Title, &n.Body, &data,
		&n.Priority, &n.Status, &n.SourceService, &n.ExternalID, &n.Error, &n.RetryCount,
		&n.SentAt, &n.DeliveredAt, &n.ReadAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, nil, err
	}
	return &n, data, nil
}

func unmarshalNotificationData(n *domain.Notification, data []byte) {
	if len(data) == 0 {
		return
	}
	if err := json.Unmarshal(data, &n.Data); err != nil {
		n.Data = make(map[string]string)
	}
}
