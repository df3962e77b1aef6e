package models

import "time"

// TTL represents cache time-to-live configuration
type TTL struct {
	Fresh time.Duration // How long the data is considered fresh
	Stale time.Duration // How long stale data is retained afterwards
}

// CacheEntry is the record persisted by the stores
type CacheEntry struct {
	Data         []byte       `json:"data"`
	ResponseType ResponseType `json:"response_type"`
	RequestKey   string       `json:"request_key"`
	CreatedAt    int64        `json:"created_at"` // unix milliseconds
	StaleAt      int64        `json:"stale_at"`
	ExpiresAt    int64        `json:"expires_at"`
	Encrypted    bool         `json:"encrypted,omitempty"`
	Compressed   bool         `json:"compressed,omitempty"`
}

// NewCacheEntry stamps data with the given TTL
func NewCacheEntry(key string, responseType ResponseType, data []byte, ttl TTL, now time.Time) CacheEntry {
	created := now.UnixMilli()
	return CacheEntry{
		Data:         data,
		ResponseType: responseType,
		RequestKey:   key,
		CreatedAt:    created,
		StaleAt:      created + ttl.Fresh.Milliseconds(),
		ExpiresAt:    created + ttl.Fresh.Milliseconds() + ttl.Stale.Milliseconds(),
	}
}

// IsFresh reports whether the entry is within its fresh TTL
func (e *CacheEntry) IsFresh(now time.Time) bool {
	return now.UnixMilli() < e.StaleAt
}

// IsExpired reports whether the entry is past its stale retention
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.UnixMilli() >= e.ExpiresAt
}

// CacheDate returns when the entry was written
func (e *CacheEntry) CacheDate() time.Time {
	return time.UnixMilli(e.CreatedAt)
}

// ExpiryDate returns when the entry stops being fresh
func (e *CacheEntry) ExpiryDate() time.Time {
	return time.UnixMilli(e.StaleAt)
}

// TTLRemaining returns the store-level lifetime left for the entry
func (e *CacheEntry) TTLRemaining(now time.Time) time.Duration {
	remaining := time.Duration(e.ExpiresAt-now.UnixMilli()) * time.Millisecond
	if remaining < 0 {
		return 0
	}
	return remaining
}
