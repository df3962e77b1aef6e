package upstream

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"go-cache-interceptor/internal/cache"
	"go-cache-interceptor/internal/cache/service"
	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/interfaces/mock"
	"go-cache-interceptor/internal/models"
)

const (
	userType models.ResponseType = "*users.User"
	testKey                      = "user-key"
)

// memStore is a map backed store honouring the interfaces.Cache contract
type memStore struct {
	mu      sync.Mutex
	entries map[string]models.CacheEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]models.CacheEntry)}
}

func (m *memStore) Get(key string) (*models.CacheEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return &entry, true
}

func (m *memStore) Set(key string, entry models.CacheEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
}

func (m *memStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *memStore) Invalidate(responseType models.ResponseType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key, entry := range m.entries {
		if entry.ResponseType == responseType {
			entry.StaleAt = time.Now().UnixMilli()
			m.entries[key] = entry
			count++
		}
	}
	return count
}

func (m *memStore) Clear(responseType models.ResponseType, oldEntriesOnly bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key, entry := range m.entries {
		if responseType != "" && entry.ResponseType != responseType {
			continue
		}
		if oldEntriesOnly && entry.IsFresh(time.Now()) {
			continue
		}
		delete(m.entries, key)
		count++
	}
	return count
}

type user struct {
	Name string
}

func decodeUser(data []byte) (any, error) {
	if strings.HasPrefix(string(data), "bad") {
		return nil, errors.New("cannot decode")
	}
	return &user{Name: string(data)}, nil
}

type fixture struct {
	store   *memStore
	fetcher *mock.MockFetcher
	source  *Source
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)

	codec, err := cache.NewCodec(nil, logger)
	require.NoError(t, err)

	store := newMemStore()
	svc := service.NewCacheService(store, cache.NewKeyBuilder(), codec, time.Hour, logger)
	fetcher := mock.NewMockFetcher(ctrl)

	return &fixture{
		store:   store,
		fetcher: fetcher,
		source:  NewSource(svc, fetcher, config.CacheConfig{Compress: true}, logger),
	}
}

func (f *fixture) seed(data string, freshFor time.Duration) {
	now := time.Now()
	entry := models.NewCacheEntry(testKey, userType, []byte(data), models.TTL{Fresh: time.Hour, Stale: time.Hour}, now.Add(-time.Hour).Add(freshFor))
	f.store.Set(testKey, entry)
}

func requestFor(op models.Operation) Request {
	instruction := models.NewCacheInstruction(userType, op)
	return Request{
		Token:        models.NewInstructionToken(instruction, models.ModeStream, testKey, "http://svc/users/1", time.Now()),
		ResponseType: userType,
		Request:      models.RequestMetadata{Method: "GET", URL: "http://svc/users/1"},
		Decode:       decodeUser,
	}
}

func collect(t *testing.T, ch <-chan models.ResponseWrapper) []models.ResponseWrapper {
	t.Helper()
	var wrappers []models.ResponseWrapper
	timeout := time.After(5 * time.Second)
	for {
		select {
		case w, ok := <-ch:
			if !ok {
				return wrappers
			}
			wrappers = append(wrappers, w)
		case <-timeout:
			t.Fatal("stream did not complete")
			return nil
		}
	}
}

func statuses(wrappers []models.ResponseWrapper) []models.CacheStatus {
	out := make([]models.CacheStatus, len(wrappers))
	for i, w := range wrappers {
		out[i] = w.Metadata.Token.Status
	}
	return out
}

func cacheOp() models.Cache {
	return models.Cache{Duration: time.Minute, ConnectivityTimeout: time.Second}
}

func TestSource_CacheMissFetchesAndStores(t *testing.T) {
	f := newFixture(t)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), time.Second).Return([]byte("alice"), nil)

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))

	require.Equal(t, []models.CacheStatus{models.StatusNetwork}, statuses(wrappers))
	assert.Equal(t, &user{Name: "alice"}, wrappers[0].Response)
	assert.Equal(t, userType, wrappers[0].ResponseType)
	assert.NoError(t, wrappers[0].Metadata.Err)
	assert.False(t, wrappers[0].Metadata.Token.CacheDate.IsZero())

	stored, found := f.store.Get(testKey)
	require.True(t, found)
	assert.Equal(t, "alice", string(stored.Data))
}

func TestSource_CacheFreshHit(t *testing.T) {
	f := newFixture(t)
	f.seed("bob", time.Hour)

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))

	require.Equal(t, []models.CacheStatus{models.StatusFresh}, statuses(wrappers))
	assert.Equal(t, &user{Name: "bob"}, wrappers[0].Response)
}

func TestSource_CacheStaleHitRefreshes(t *testing.T) {
	f := newFixture(t)
	f.seed("old", -time.Minute)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), time.Second).Return([]byte("new"), nil)

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))

	require.Equal(t, []models.CacheStatus{models.StatusStale, models.StatusRefreshed}, statuses(wrappers))
	assert.Equal(t, &user{Name: "old"}, wrappers[0].Response)
	assert.Equal(t, &user{Name: "new"}, wrappers[1].Response)
}

func TestSource_CacheStaleHitRefreshFails(t *testing.T) {
	f := newFixture(t)
	f.seed("old", -time.Minute)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("offline"))

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))

	require.Equal(t, []models.CacheStatus{models.StatusStale, models.StatusCouldNotRefresh}, statuses(wrappers))
	assert.Equal(t, &user{Name: "old"}, wrappers[1].Response)
	assert.True(t, errors.Is(wrappers[1].Metadata.Err, models.ErrUpstream))
}

func TestSource_CacheMissNetworkFailure(t *testing.T) {
	f := newFixture(t)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("offline"))

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))

	require.Equal(t, []models.CacheStatus{models.StatusEmpty}, statuses(wrappers))
	assert.Nil(t, wrappers[0].Response)
	assert.True(t, errors.Is(wrappers[0].Metadata.Err, models.ErrUpstream))
}

func TestSource_DecodeFailureIsSerialisationError(t *testing.T) {
	f := newFixture(t)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("bad payload"), nil)

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))

	require.Len(t, wrappers, 1)
	assert.True(t, errors.Is(wrappers[0].Metadata.Err, models.ErrSerialisation))
	_, found := f.store.Get(testKey)
	assert.False(t, found)
}

func TestSource_Refresh(t *testing.T) {
	t.Run("always fetches", func(t *testing.T) {
		f := newFixture(t)
		f.seed("cached", time.Hour)
		f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), 2*time.Second).Return([]byte("fetched"), nil)

		op := models.Refresh{Duration: time.Minute, ConnectivityTimeout: 2 * time.Second}
		wrappers := collect(t, f.source.Stream(context.Background(), requestFor(op)))

		require.Equal(t, []models.CacheStatus{models.StatusRefreshed}, statuses(wrappers))
		assert.Equal(t, &user{Name: "fetched"}, wrappers[0].Response)
		stored, _ := f.store.Get(testKey)
		assert.True(t, stored.Compressed)
	})

	t.Run("falls back to cached data", func(t *testing.T) {
		f := newFixture(t)
		f.seed("cached", time.Hour)
		f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("offline"))

		wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.Refresh{Duration: time.Minute})))

		require.Equal(t, []models.CacheStatus{models.StatusCouldNotRefresh}, statuses(wrappers))
		assert.Equal(t, &user{Name: "cached"}, wrappers[0].Response)
		assert.Error(t, wrappers[0].Metadata.Err)
	})

	t.Run("empty without cached data", func(t *testing.T) {
		f := newFixture(t)
		f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("offline"))

		wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.Refresh{Duration: time.Minute})))

		require.Equal(t, []models.CacheStatus{models.StatusEmpty}, statuses(wrappers))
	})
}

func TestSource_Offline(t *testing.T) {
	t.Run("fresh", func(t *testing.T) {
		f := newFixture(t)
		f.seed("cached", time.Hour)
		wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.Offline{})))
		assert.Equal(t, []models.CacheStatus{models.StatusFresh}, statuses(wrappers))
	})

	t.Run("stale", func(t *testing.T) {
		f := newFixture(t)
		f.seed("cached", -time.Minute)
		wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.Offline{})))
		assert.Equal(t, []models.CacheStatus{models.StatusStale}, statuses(wrappers))
	})

	t.Run("absent emits nothing", func(t *testing.T) {
		f := newFixture(t)
		wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.Offline{})))
		assert.Empty(t, wrappers)
	})
}

func TestSource_DoNotCache(t *testing.T) {
	f := newFixture(t)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), time.Duration(0)).Return([]byte("direct"), nil)

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.DoNotCache{})))

	require.Equal(t, []models.CacheStatus{models.StatusNotCached}, statuses(wrappers))
	assert.Equal(t, &user{Name: "direct"}, wrappers[0].Response)
	_, found := f.store.Get(testKey)
	assert.False(t, found)
}

func TestSource_InvalidateAndClear(t *testing.T) {
	f := newFixture(t)
	f.seed("cached", time.Hour)

	wrappers := collect(t, f.source.Stream(context.Background(), requestFor(models.Invalidate{})))
	require.Equal(t, []models.CacheStatus{models.StatusInvalidated}, statuses(wrappers))
	entry, found := f.store.Get(testKey)
	require.True(t, found)
	assert.False(t, entry.IsFresh(time.Now().Add(time.Millisecond)))

	wrappers = collect(t, f.source.Stream(context.Background(), requestFor(models.Clear{All: true})))
	require.Equal(t, []models.CacheStatus{models.StatusCleared}, statuses(wrappers))
	_, found = f.store.Get(testKey)
	assert.False(t, found)
}

func TestSource_ConcurrentFetchesAreShared(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	var calls atomic.Int32
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req models.RequestMetadata, timeout time.Duration) ([]byte, error) {
			calls.Add(1)
			<-release
			return []byte("shared"), nil
		}).MinTimes(1).MaxTimes(2)

	var wg sync.WaitGroup
	results := make([][]models.ResponseWrapper, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = collect(t, f.source.Stream(context.Background(), requestFor(cacheOp())))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, wrappers := range results {
		require.Len(t, wrappers, 1)
		assert.Equal(t, &user{Name: "shared"}, wrappers[0].Response)
	}
	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestSource_CancelStopsStream(t *testing.T) {
	f := newFixture(t)
	f.seed("old", -time.Minute)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any()).Return([]byte("new"), nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	ch := f.source.Stream(ctx, requestFor(cacheOp()))

	first := <-ch
	assert.Equal(t, models.StatusStale, first.Metadata.Token.Status)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// a wrapper already in flight may still arrive; the channel must close after it
			_, ok = <-ch
			assert.False(t, ok)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}
