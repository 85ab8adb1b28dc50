package channel

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepmyapp/notification/internal/domain"
)

type fakeInAppRepository struct {
	lastListOpts domain.ListOptions
	listResult   *domain.NotificationList
	markReadIDs  []string
	markReadN    int64
	getByIDFn    func(id string) (*domain.Notification, error)
	createFn     func(n *domain.Notification) error
}

func (f *fakeInAppRepository) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn != nil {
		return f.createFn(n)
	}
	return nil
}

func (f *fakeInAppRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(id)
	}
	return nil, domain.NewErrNotFound("notification", id)
}

func (f *fakeInAppRepository) List(ctx context.Context, tenantID, accountID string, opts domain.ListOptions) (*domain.NotificationList, error) {
	f.lastListOpts = opts
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &domain.NotificationList{}, nil
}

func (f *fakeInAppRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, externalID, errMsg string) error {
	return nil
}

func (f *fakeInAppRepository) MarkAsRead(ctx context.Context, tenantID, accountID string, ids []string) (int64, error) {
	f.markReadIDs = ids
	return f.markReadN, nil
}

func (f *fakeInAppRepository) UnreadCount(ctx context.Context, tenantID, accountID string) (int64, error) {
	return 0, nil
}

func TestInAppAdapter_List_NormalizesZeroPageAndPageSize(t *testing.T) {
	repo := &fakeInAppRepository{}
	adapter := NewInAppAdapter(repo, nil, zerolog.Nop())

	_, err := adapter.List(context.Background(), "t1", "a1", domain.ListOptions{Page: 0, PageSize: 0})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lastListOpts.Page)
	assert.Equal(t, 20, repo.lastListOpts.PageSize)
}

func TestInAppAdapter_List_PreservesExplicitPaging(t *testing.T) {
	repo := &fakeInAppRepository{}
	adapter := NewInAppAdapter(repo, nil, zerolog.Nop())

	_, err := adapter.List(context.Background(), "t1", "a1", domain.ListOptions{Page: 3, PageSize: 50})
	require.NoError(t, err)

	assert.Equal(t, 3, repo.lastListOpts.Page)
	assert.Equal(t, 50, repo.lastListOpts.PageSize)
}

func TestInAppAdapter_MarkAsRead_DelegatesToRepository(t *testing.T) {
	repo := &fakeInAppRepository{markReadN: 2}
	adapter := NewInAppAdapter(repo, nil, zerolog.Nop())

	ids := []string{uuid.New().String(), uuid.New().String()}
	count, err := adapter.MarkAsRead(context.Background(), "t1", "a1", ids)

	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, ids, repo.markReadIDs)
}

// TestInAppAdapter_Send_IdempotentConflictReturnsWinnerRow verifies that
// losing the insert race to a concurrent send with the same idempotency
// key still reports success, using the row the winner created.
func TestInAppAdapter_Send_IdempotentConflictReturnsWinnerRow(t *testing.T) {
	winner := &domain.Notification{ID: "k1", ExternalID: "k1"}
	repo := &fakeInAppRepository{
		createFn: func(n *domain.Notification) error { return domain.ErrIdempotentConflict },
		getByIDFn: func(id string) (*domain.Notification, error) {
			assert.Equal(t, "k1", id)
			return winner, nil
		},
	}
	adapter := NewInAppAdapter(repo, nil, zerolog.Nop())

	result := adapter.Send(context.Background(), domain.NormalizedRequest{NotificationID: "k1", TenantID: "t1", AccountID: "a1"})

	assert.True(t, result.Success)
	assert.Equal(t, "k1", result.ExternalID)
}

func TestInAppAdapter_Status_NotFoundPropagates(t *testing.T) {
	repo := &fakeInAppRepository{}
	adapter := NewInAppAdapter(repo, nil, zerolog.Nop())

	_, err := adapter.Status(context.Background(), uuid.New().String())

	require.Error(t, err)
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}
