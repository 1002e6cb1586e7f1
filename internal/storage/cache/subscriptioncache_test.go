package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-commerce-admin/internal/storage/cache"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// --- Mocks ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}
func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}
func (m *MockCache) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockRealStore struct {
	mock.Mock
}

func (m *MockRealStore) Create(ctx context.Context, reg notify.Registration) (notify.Subscription, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(notify.Subscription), args.Error(1)
}
func (m *MockRealStore) ListAll(ctx context.Context) ([]notify.Subscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]notify.Subscription), args.Error(1)
}
func (m *MockRealStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockRealStore) DeleteByOwnerAndChannel(ctx context.Context, owner urn.URN, channel notify.Channel, credential string) error {
	return m.Called(ctx, owner, channel, credential).Error(0)
}

const cacheKey = "commerce:subscriptions:all"

func TestCachedStore_ImmediateInvalidation(t *testing.T) {
	ctx := context.Background()
	mockCache := new(MockCache)
	mockDB := new(MockRealStore)

	// Decorate the DB
	store := cache.NewCachedSubscriptionStore(mockDB, mockCache, 1*time.Hour)

	t.Run("Delete invalidates cache immediately", func(t *testing.T) {
		// 1. Expect DB call
		mockDB.On("Delete", ctx, "sub-1").Return(nil)

		// 2. Expect Cache DELETE (Crucial!)
		mockCache.On("Del", ctx, cacheKey).Return(nil)

		// Act
		err := store.Delete(ctx, "sub-1")

		// Assert
		require.NoError(t, err)
		mockDB.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("Subsequent ListAll hits DB (Cache Miss)", func(t *testing.T) {
		// 1. Expect Cache Miss (simulating the delete worked)
		mockCache.On("Get", ctx, cacheKey, mock.Anything).Return(assert.AnError) // Error implies miss

		// 2. Expect DB Read (Source of Truth)
		empty := []notify.Subscription{}
		mockDB.On("ListAll", ctx).Return(empty, nil)

		// 3. Expect Cache SET (Refilling with empty state)
		mockCache.On("Set", ctx, cacheKey, empty, mock.Anything).Return(nil)

		// Act
		subs, err := store.ListAll(ctx)

		// Assert
		require.NoError(t, err)
		require.Empty(t, subs)
		mockDB.AssertExpectations(t)
	})
}

func TestCachedStore_ReadAside(t *testing.T) {
	ctx := context.Background()
	owner, _ := urn.Parse("urn:sm:user:admin-1")

	t.Run("Cache hit skips the DB", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedSubscriptionStore(mockDB, mockCache, time.Hour)

		mockCache.On("Get", ctx, cacheKey, mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*[]notify.Subscription)
				*dest = []notify.Subscription{{ID: "sub-1", OwnerID: owner, Channel: notify.ChannelPushToken, Token: "tok"}}
			}).
			Return(nil)

		subs, err := store.ListAll(ctx)

		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "sub-1", subs[0].ID)
		mockDB.AssertNotCalled(t, "ListAll", mock.Anything)
	})

	t.Run("Create writes through and invalidates", func(t *testing.T) {
		mockCache := new(MockCache)
		mockDB := new(MockRealStore)
		store := cache.NewCachedSubscriptionStore(mockDB, mockCache, time.Hour)

		reg := notify.Registration{OwnerID: owner, Token: "tok-new"}
		created := notify.Subscription{ID: "sub-new", OwnerID: owner, Channel: notify.ChannelPushToken, Token: "tok-new"}
		mockDB.On("Create", ctx, reg).Return(created, nil)
		mockCache.On("Del", ctx, cacheKey).Return(nil)

		sub, err := store.Create(ctx, reg)

		require.NoError(t, err)
		assert.Equal(t, "sub-new", sub.ID)
		mockCache.AssertExpectations(t)
	})
}
