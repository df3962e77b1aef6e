package interfaces

import (
	"go-cache-interceptor/internal/models"
)

//go:generate mockgen -package=mock -source=cache.go -destination=mock/cache.go

// Cache interface defines the contract for store implementations
type Cache interface {
	Get(key string) (*models.CacheEntry, bool) // returns entry (fresh or stale) and found flag
	Set(key string, entry models.CacheEntry)
	Delete(key string)
	// Invalidate marks every entry of responseType stale and returns how many were touched
	Invalidate(responseType models.ResponseType) int
	// Clear removes entries of responseType, or of every type when responseType is empty.
	// With oldEntriesOnly only entries past their fresh TTL are removed.
	Clear(responseType models.ResponseType, oldEntriesOnly bool) int
}
