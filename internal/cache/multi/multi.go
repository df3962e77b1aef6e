package multi

import (
	"go.uber.org/zap"

	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

// Ensure MultiCache implements interfaces.Cache
var _ interfaces.Cache = (*MultiCache)(nil)

// MultiCache is a composite cache reading levels in order and writing to all of them
type MultiCache struct {
	caches            []interfaces.Cache
	logger            *zap.Logger
	enablePropagation bool
}

// NewMultiCache creates a new MultiCache. With enablePropagation a hit in a lower
// level is copied into the levels before it.
func NewMultiCache(caches []interfaces.Cache, logger *zap.Logger, enablePropagation bool) *MultiCache {
	return &MultiCache{
		caches:            caches,
		logger:            logger,
		enablePropagation: enablePropagation,
	}
}

// Get retrieves the entry from the first level that has the key
func (mc *MultiCache) Get(key string) (*models.CacheEntry, bool) {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for get operation", zap.String("key", key))
		return nil, false
	}

	for i, cache := range mc.caches {
		entry, found := cache.Get(key)
		if !found {
			continue
		}
		if mc.enablePropagation && i > 0 {
			for _, upper := range mc.caches[:i] {
				upper.Set(key, *entry)
			}
		}
		return entry, true
	}
	return nil, false
}

// Set stores the entry in all levels
func (mc *MultiCache) Set(key string, entry models.CacheEntry) {
	if len(mc.caches) == 0 {
		mc.logger.Warn("No caches available for set operation", zap.String("key", key))
		return
	}

	for _, cache := range mc.caches {
		cache.Set(key, entry)
	}
}

// Delete removes entry from all levels
func (mc *MultiCache) Delete(key string) {
	for _, cache := range mc.caches {
		cache.Delete(key)
	}
}

// Invalidate invalidates responseType in all levels. Levels hold the same
// entries, so the largest count is returned.
func (mc *MultiCache) Invalidate(responseType models.ResponseType) int {
	count := 0
	for _, cache := range mc.caches {
		count = max(count, cache.Invalidate(responseType))
	}
	return count
}

// Clear clears responseType in all levels and returns the largest count
func (mc *MultiCache) Clear(responseType models.ResponseType, oldEntriesOnly bool) int {
	count := 0
	for _, cache := range mc.caches {
		count = max(count, cache.Clear(responseType, oldEntriesOnly))
	}
	return count
}

// GetCacheCount returns the number of caches in the multi-cache
func (mc *MultiCache) GetCacheCount() int {
	return len(mc.caches)
}
