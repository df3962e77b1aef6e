package noop

import (
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

// Ensure NoOpCache implements interfaces.Cache
var _ interfaces.Cache = (*NoOpCache)(nil)

// NoOpCache is a no-operation cache implementation for disabled caches
type NoOpCache struct{}

// NewNoOpCache creates a new no-operation cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns cache miss
func (n *NoOpCache) Get(key string) (*models.CacheEntry, bool) {
	return nil, false
}

// Set does nothing
func (n *NoOpCache) Set(key string, entry models.CacheEntry) {}

// Delete does nothing
func (n *NoOpCache) Delete(key string) {}

// Invalidate touches nothing
func (n *NoOpCache) Invalidate(responseType models.ResponseType) int {
	return 0
}

// Clear removes nothing
func (n *NoOpCache) Clear(responseType models.ResponseType, oldEntriesOnly bool) int {
	return 0
}
