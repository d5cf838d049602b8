package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCacheManager struct {
	mock.Mock
}

func (m *mockCacheManager) Get(ctx context.Context, key string) (int, bool) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Bool(1)
}

func (m *mockCacheManager) GetWithRefresh(ctx context.Context, key string, ttl time.Duration) (int, bool) {
	args := m.Called(ctx, key, ttl)
	return args.Int(0), args.Bool(1)
}

func (m *mockCacheManager) Set(ctx context.Context, key string, value int, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCacheManager) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCacheManager) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockCacheManager) Keys(ctx context.Context) []string {
	return m.Called(ctx).Get(0).([]string)
}

var _ CacheManager[string, int] = (*mockCacheManager)(nil)

func TestReadThroughCache_HitSkipsLoader(t *testing.T) {
	ctx := context.Background()
	cm := &mockCacheManager{}
	cm.On("GetWithRefresh", ctx, "k", time.Minute).Return(7, true)

	calls := 0
	rt := NewReadThroughCache[string, int](cm, func(context.Context, string) (int, error) {
		calls++
		return 0, nil
	}, time.Minute)

	got, loaded, err := rt.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.False(t, loaded)
	require.Zero(t, calls)
	cm.AssertExpectations(t)
}

func TestReadThroughCache_MissLoadsAndStores(t *testing.T) {
	ctx := context.Background()
	cm := &mockCacheManager{}
	cm.On("GetWithRefresh", ctx, "k", NoExpiration).Return(0, false)
	cm.On("Set", ctx, "k", 42, NoExpiration).Return()

	rt := NewReadThroughCache[string, int](cm, func(_ context.Context, key string) (int, error) {
		require.Equal(t, "k", key)
		return 42, nil
	}, NoExpiration)

	got, loaded, err := rt.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.True(t, loaded)
	cm.AssertExpectations(t)
}

func TestReadThroughCache_LoaderErrorNotStored(t *testing.T) {
	ctx := context.Background()
	cm := &mockCacheManager{}
	cm.On("GetWithRefresh", ctx, "k", time.Minute).Return(0, false)

	boom := errors.New("boom")
	rt := NewReadThroughCache[string, int](cm, func(context.Context, string) (int, error) {
		return 0, boom
	}, time.Minute)

	_, loaded, err := rt.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	require.False(t, loaded)
	cm.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_InMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewInMemoryCacheManager[string, int]("test", NoExpiration, DefaultCleanupInterval)

	calls := 0
	rt := NewReadThroughCache[string, int](mem, func(_ context.Context, key string) (int, error) {
		calls++
		return len(key), nil
	}, NoExpiration)

	for range 3 {
		got, _, err := rt.Get(ctx, "four")
		require.NoError(t, err)
		require.Equal(t, 4, got)
	}
	require.Equal(t, 1, calls)
	require.Equal(t, []string{"four"}, rt.Cache().Keys(ctx))
}
