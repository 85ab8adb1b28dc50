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

type fakePushProvider struct {
	result *domain.MulticastResult
}

func (f *fakePushProvider) Configured() bool { return true }

func (f *fakePushProvider) SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) (*domain.MulticastResult, error) {
	return f.result, nil
}

type fakeDeviceTokenRepository struct {
	tokens  []string
	evicted []string
}

func (f *fakeDeviceTokenRepository) Register(ctx context.Context, token *domain.DeviceToken) (uuid.UUID, error) {
	panic("not used by this test")
}

func (f *fakeDeviceTokenRepository) Unregister(ctx context.Context, tenantID, accountID, token string) (bool, error) {
	panic("not used by this test")
}

func (f *fakeDeviceTokenRepository) ListForAccount(ctx context.Context, tenantID, accountID string) ([]*domain.DeviceToken, error) {
	panic("not used by this test")
}

func (f *fakeDeviceTokenRepository) ActiveTokens(ctx context.Context, tenantID, accountID string) ([]string, error) {
	return f.tokens, nil
}

func (f *fakeDeviceTokenRepository) EvictByToken(ctx context.Context, token string) error {
	f.evicted = append(f.evicted, token)
	return nil
}

func TestPushAdapter_Send_EvictsInvalidAndUnregisteredTokens(t *testing.T) {
	tokens := []string{"tok-good", "tok-invalid", "tok-unregistered"}
	provider := &fakePushProvider{result: &domain.MulticastResult{
		SuccessCount: 1,
		FailureCount: 2,
		PerMessage: []domain.PushMessageResult{
			{Success: true, MessageID: "m1", Code: domain.PushResultOK},
			{Success: false, Code: domain.PushResultInvalidToken},
			{Success: false, Code: domain.PushResultNotRegistered},
		},
	}}
	repo := &fakeDeviceTokenRepository{tokens: tokens}

	adapter := NewPushAdapter(provider, repo, zerolog.Nop())

	req := domain.NormalizedRequest{TenantID: "t1", AccountID: "a1", Title: "hi", Body: "there", Priority: domain.PriorityNormal}
	result := adapter.Send(context.Background(), req)

	require.True(t, result.Success)
	assert.Equal(t, "2 device(s) failed", result.Error)
	assert.ElementsMatch(t, []string{"tok-invalid", "tok-unregistered"}, repo.evicted)
}

func TestPushAdapter_Send_NoTokensFails(t *testing.T) {
	provider := &fakePushProvider{}
	repo := &fakeDeviceTokenRepository{}

	adapter := NewPushAdapter(provider, repo, zerolog.Nop())

	req := domain.NormalizedRequest{TenantID: "t1", AccountID: "a1"}
	result := adapter.Send(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, "no registered devices", result.Error)
}
