package l1

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
)

const metricsInterval = 30 * time.Second

// Ensure BigCache implements interfaces.Cache
var _ interfaces.Cache = (*BigCache)(nil)

// BigCache implements L1 cache using BigCache
type BigCache struct {
	cache  *bigcache.BigCache
	logger *zap.Logger
	now    func() time.Time

	stopMetrics chan struct{}
	stopOnce    sync.Once
}

// NewBigCache creates a new BigCache instance
func NewBigCache(bigcacheCfg *config.BigCacheConfig, logger *zap.Logger) (*BigCache, error) {
	cfg := bigcache.DefaultConfig(bigcacheCfg.LifeWindow)
	cfg.HardMaxCacheSize = bigcacheCfg.Size // Size in MB
	if bigcacheCfg.Shards > 0 {
		cfg.Shards = bigcacheCfg.Shards
	}
	cfg.Verbose = false
	cfg.MaxEntrySize = 1024 * 1024 // 1MB max entry size

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	bc := &BigCache{
		cache:       cache,
		logger:      logger,
		now:         time.Now,
		stopMetrics: make(chan struct{}),
	}

	bc.startMetricsCollection()

	return bc, nil
}

// Get retrieves an entry, fresh or stale. Entries past their stale retention are removed.
func (bc *BigCache) Get(key string) (*models.CacheEntry, bool) {
	data, err := bc.cache.Get(key)
	if err != nil {
		return nil, false
	}

	entry, ok := bc.decode(key, data)
	if !ok {
		return nil, false
	}

	if entry.IsExpired(bc.now()) {
		_ = bc.cache.Delete(key)
		return nil, false
	}

	return entry, true
}

// Set stores an entry
func (bc *BigCache) Set(key string, entry models.CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		bc.logger.Error("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "encode")
		return
	}

	if err := bc.cache.Set(key, data); err != nil {
		bc.logger.Error("Failed to set cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "upstream")
	}
}

// Delete removes entry from cache
func (bc *BigCache) Delete(key string) {
	_ = bc.cache.Delete(key)
}

// Invalidate marks every fresh entry of responseType as stale
func (bc *BigCache) Invalidate(responseType models.ResponseType) int {
	now := bc.now()
	matches := bc.scan(func(entry *models.CacheEntry) bool {
		return entry.ResponseType == responseType && entry.IsFresh(now)
	})

	for key, entry := range matches {
		entry.StaleAt = now.UnixMilli()
		bc.Set(key, *entry)
	}
	return len(matches)
}

// Clear removes the entries of responseType, or every entry when responseType is empty
func (bc *BigCache) Clear(responseType models.ResponseType, oldEntriesOnly bool) int {
	now := bc.now()
	matches := bc.scan(func(entry *models.CacheEntry) bool {
		if responseType != "" && entry.ResponseType != responseType {
			return false
		}
		return !oldEntriesOnly || !entry.IsFresh(now)
	})

	for key := range matches {
		_ = bc.cache.Delete(key)
	}
	return len(matches)
}

// scan collects the entries accepted by match. Mutations happen after iterating.
func (bc *BigCache) scan(match func(entry *models.CacheEntry) bool) map[string]*models.CacheEntry {
	matches := make(map[string]*models.CacheEntry)

	it := bc.cache.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			continue
		}
		entry, ok := bc.decode(info.Key(), info.Value())
		if !ok {
			continue
		}
		if match(entry) {
			matches[info.Key()] = entry
		}
	}
	return matches
}

func (bc *BigCache) decode(key string, data []byte) (*models.CacheEntry, bool) {
	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		bc.logger.Warn("Failed to unmarshal L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "decode")
		_ = bc.cache.Delete(key) // Remove corrupted entry
		return nil, false
	}
	return &entry, true
}

// Len returns the number of stored entries
func (bc *BigCache) Len() int {
	return bc.cache.Len()
}

// Close closes the cache
func (bc *BigCache) Close() error {
	bc.stopOnce.Do(func() { close(bc.stopMetrics) })
	return bc.cache.Close()
}

// startMetricsCollection starts periodic metrics collection
func (bc *BigCache) startMetricsCollection() {
	bc.updateMetrics()

	go func() {
		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				bc.updateMetrics()
			case <-bc.stopMetrics:
				return
			}
		}
	}()

	bc.logger.Debug("Started L1 cache metrics collection")
}

// updateMetrics updates cache metrics
func (bc *BigCache) updateMetrics() {
	metrics.UpdateL1CacheCapacity(int64(bc.cache.Capacity()))
	metrics.UpdateCacheKeys("l1", int64(bc.cache.Len()))
}
