package l1

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/models"
)

const (
	userType    models.ResponseType = "*users.User"
	profileType models.ResponseType = "*users.Profile"
)

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) *BigCache {
	t.Helper()
	cache, err := NewBigCache(&config.BigCacheConfig{Size: 10, Shards: 16, LifeWindow: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	cache.now = func() time.Time { return baseTime }
	return cache
}

func entry(key string, responseType models.ResponseType, data string) models.CacheEntry {
	return models.NewCacheEntry(key, responseType, []byte(data), models.TTL{Fresh: time.Minute, Stale: time.Hour}, baseTime)
}

func TestNewBigCache(t *testing.T) {
	logger := zap.NewNop()

	cache, err := NewBigCache(&config.BigCacheConfig{Size: 10, Shards: 16, LifeWindow: time.Hour}, logger)

	assert.NoError(t, err)
	require.NotNil(t, cache)
	assert.NotNil(t, cache.cache)
	assert.Equal(t, logger, cache.logger)
	assert.NoError(t, cache.Close())
}

func TestBigCache_Set_And_Get_Fresh(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("test-key", entry("test-key", userType, "test-value"))

	result, found := cache.Get("test-key")

	assert.True(t, found)
	require.NotNil(t, result)
	assert.True(t, result.IsFresh(baseTime))
	assert.Equal(t, []byte("test-value"), result.Data)
	assert.Equal(t, userType, result.ResponseType)
}

func TestBigCache_Get_NotFound(t *testing.T) {
	cache := newTestCache(t)

	result, found := cache.Get("non-existent-key")

	assert.False(t, found)
	assert.Nil(t, result)
}

func TestBigCache_Get_Stale(t *testing.T) {
	cache := newTestCache(t)
	cache.Set("test-key", entry("test-key", userType, "test-value"))

	cache.now = func() time.Time { return baseTime.Add(2 * time.Minute) }
	result, found := cache.Get("test-key")

	assert.True(t, found)
	require.NotNil(t, result)
	assert.False(t, result.IsFresh(cache.now()))
}

func TestBigCache_Get_Expired(t *testing.T) {
	cache := newTestCache(t)
	cache.Set("test-key", entry("test-key", userType, "test-value"))

	cache.now = func() time.Time { return baseTime.Add(2 * time.Hour) }
	result, found := cache.Get("test-key")

	assert.False(t, found)
	assert.Nil(t, result)
	assert.Equal(t, 0, cache.Len())
}

func TestBigCache_Get_Corrupted(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.cache.Set("broken", []byte("{not json")))

	result, found := cache.Get("broken")

	assert.False(t, found)
	assert.Nil(t, result)
	assert.Equal(t, 0, cache.Len())
}

func TestBigCache_Delete(t *testing.T) {
	cache := newTestCache(t)
	cache.Set("test-key", entry("test-key", userType, "test-value"))

	cache.Delete("test-key")
	cache.Delete("non-existent")

	_, found := cache.Get("test-key")
	assert.False(t, found)
}

func TestBigCache_Invalidate(t *testing.T) {
	cache := newTestCache(t)
	cache.Set("u1", entry("u1", userType, "1"))
	cache.Set("u2", entry("u2", userType, "2"))
	cache.Set("p1", entry("p1", profileType, "p"))

	count := cache.Invalidate(userType)

	assert.Equal(t, 2, count)
	for _, key := range []string{"u1", "u2"} {
		result, found := cache.Get(key)
		require.True(t, found, key)
		assert.False(t, result.IsFresh(baseTime), key)
		assert.False(t, result.IsExpired(baseTime), key)
	}
	profile, found := cache.Get("p1")
	require.True(t, found)
	assert.True(t, profile.IsFresh(baseTime))

	assert.Equal(t, 0, cache.Invalidate(userType))
}

func TestBigCache_Clear(t *testing.T) {
	tests := []struct {
		name           string
		responseType   models.ResponseType
		oldEntriesOnly bool
		wantCleared    int
		wantRemaining  []string
	}{
		{"one type", userType, false, 2, []string{"p1"}},
		{"one type old entries only", userType, true, 1, []string{"u1", "p1"}},
		{"all types", "", false, 3, nil},
		{"all types old entries only", "", true, 1, []string{"u1", "p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newTestCache(t)
			cache.Set("u1", entry("u1", userType, "1"))
			cache.Set("p1", entry("p1", profileType, "p"))

			old := entry("u2", userType, "2")
			old.StaleAt = baseTime.Add(-time.Second).UnixMilli()
			cache.Set("u2", old)

			assert.Equal(t, tt.wantCleared, cache.Clear(tt.responseType, tt.oldEntriesOnly))
			assert.Equal(t, len(tt.wantRemaining), cache.Len())
			for _, key := range tt.wantRemaining {
				_, found := cache.Get(key)
				assert.True(t, found, key)
			}
		})
	}
}

func TestBigCache_Concurrent_Access(t *testing.T) {
	cache := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d-%d", i, j)
				cache.Set(key, entry(key, userType, "v"))
				_, _ = cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 500, cache.Len())
}
