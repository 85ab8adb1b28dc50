package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepmyapp/notification/internal/channel"
	"github.com/prepmyapp/notification/internal/domain"
)

type fakeNotificationRepository struct {
	mu            sync.Mutex
	byID          map[string]*domain.Notification
	createCount   int
	markReadCount map[string]bool
}

func newFakeNotificationRepository() *fakeNotificationRepository {
	return &fakeNotificationRepository{byID: make(map[string]*domain.Notification), markReadCount: make(map[string]bool)}
}

func (f *fakeNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCount++
	if _, exists := f.byID[n.ID]; exists {
		return domain.ErrIdempotentConflict
	}
	f.byID[n.ID] = n
	return nil
}

func (f *fakeNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return nil, domain.NewErrNotFound("notification", id)
	}
	return n, nil
}

func (f *fakeNotificationRepository) List(ctx context.Context, tenantID, accountID string, opts domain.ListOptions) (*domain.NotificationList, error) {
	return &domain.NotificationList{}, nil
}

func (f *fakeNotificationRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, externalID, errMsg string) error {
	return nil
}

func (f *fakeNotificationRepository) MarkAsRead(ctx context.Context, tenantID, accountID string, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, id := range ids {
		n, ok := f.byID[id]
		if !ok || n.TenantID != tenantID || n.AccountID != accountID || f.markReadCount[id] {
			continue
		}
		f.markReadCount[id] = true
		count++
	}
	return count, nil
}

func (f *fakeNotificationRepository) UnreadCount(ctx context.Context, tenantID, accountID string) (int64, error) {
	return 0, nil
}

func newTestDispatchService(repo domain.NotificationRepository, router *ChannelRouter) *DispatchService {
	inApp := channel.NewInAppAdapter(repo, nil, zerolog.Nop())
	return NewDispatchService(repo, router, inApp, nil, zerolog.Nop())
}

func TestDispatchService_SendNotification_IdempotentReplay(t *testing.T) {
	repo := newFakeNotificationRepository()
	email := newFakeAdapter(domain.ChannelEmail)
	inApp := channel.NewInAppAdapter(repo, nil, zerolog.Nop())
	router, _ := newTestRouter(domain.QuietHoursConfig{Enabled: false}, email, inApp)
	dispatch := NewDispatchService(repo, router, inApp, nil, zerolog.Nop())

	key := uuid.New().String()
	req := SendRequest{
		TenantID:       "t1",
		AccountID:      "a1",
		Type:           domain.TypeSystem,
		Channels:       []domain.Channel{domain.ChannelInApp, domain.ChannelEmail},
		Title:          "hello",
		IdempotencyKey: key,
	}

	first, err := dispatch.SendNotification(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, key, first.NotificationID)

	second, err := dispatch.SendNotification(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, key, second.NotificationID)
	assert.Equal(t, "idempotent", second.Message)

	assert.Len(t, email.calls, 1)
}

// TestDispatchService_SendNotification_IdempotencyKeyIsLiteralID verifies
// notificationId echoes the caller's idempotency key verbatim even when it
// isn't a UUID-shaped string, which is the common case for caller-chosen keys.
func TestDispatchService_SendNotification_IdempotencyKeyIsLiteralID(t *testing.T) {
	repo := newFakeNotificationRepository()
	inApp := channel.NewInAppAdapter(repo, nil, zerolog.Nop())
	router, _ := newTestRouter(domain.QuietHoursConfig{Enabled: false}, inApp)
	dispatch := NewDispatchService(repo, router, inApp, nil, zerolog.Nop())

	const key = "order-42-reminder"
	req := SendRequest{
		TenantID:       "t1",
		AccountID:      "a1",
		Type:           domain.TypeSystem,
		Channels:       []domain.Channel{domain.ChannelInApp},
		Title:          "hello",
		IdempotencyKey: key,
	}

	result, err := dispatch.SendNotification(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, key, result.NotificationID)

	stored, err := repo.GetByID(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, key, stored.ID)
}

func TestDispatchService_MarkAsRead_CountsOnlyOwnedUnread(t *testing.T) {
	repo := newFakeNotificationRepository()
	router, _ := newTestRouter(domain.QuietHoursConfig{Enabled: false})
	dispatch := newTestDispatchService(repo, router)

	owned := uuid.New().String()
	otherAccount := uuid.New().String()
	alreadyRead := uuid.New().String()

	n1 := domain.NewNotification(owned, "t1", "a1", domain.TypeSystem, domain.ChannelInApp, "t", "b", nil, domain.PriorityNormal, "")
	n2 := domain.NewNotification(otherAccount, "t1", "a2", domain.TypeSystem, domain.ChannelInApp, "t", "b", nil, domain.PriorityNormal, "")
	n3 := domain.NewNotification(alreadyRead, "t1", "a1", domain.TypeSystem, domain.ChannelInApp, "t", "b", nil, domain.PriorityNormal, "")
	require.NoError(t, repo.Create(context.Background(), n1))
	require.NoError(t, repo.Create(context.Background(), n2))
	require.NoError(t, repo.Create(context.Background(), n3))

	count, err := dispatch.MarkAsRead(context.Background(), "t1", "a1", []string{owned, otherAccount, alreadyRead})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = dispatch.MarkAsRead(context.Background(), "t1", "a1", []string{owned, alreadyRead})
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
