// Package directive declares per-call caching intent. A call carries zero or
// one directive; the resolver turns it into a models.Operation.
package directive

import (
	"go-cache-interceptor/internal/models"
)

// Default marks a duration or timeout left to the global configuration
const Default int64 = -1

// Kind names a directive
type Kind string

const (
	KindCache      Kind = "Cache"
	KindRefresh    Kind = "Refresh"
	KindOffline    Kind = "Offline"
	KindInvalidate Kind = "Invalidate"
	KindClear      Kind = "Clear"
	KindClearAll   Kind = "ClearAll"
	KindDoNotCache Kind = "DoNotCache"
)

// Directive is a declaration of caching intent attached to a call
type Directive interface {
	Kind() Kind
}

// Cache serves cached data and refreshes it from the network once it expires
type Cache struct {
	DurationMs            int64
	ConnectivityTimeoutMs int64
	FreshOnly             bool
	MergeOnNextOnError    models.OptionalBool
	Encrypt               models.OptionalBool
	Compress              models.OptionalBool
}

// Refresh always fetches from the network, caching the result
type Refresh struct {
	DurationMs            int64
	ConnectivityTimeoutMs int64
	FreshOnly             bool
	MergeOnNextOnError    models.OptionalBool
}

// Offline serves cached data only
type Offline struct {
	FreshOnly          bool
	MergeOnNextOnError models.OptionalBool
}

// Invalidate marks cached entries of TargetType stale. An empty TargetType
// targets the call's own response type.
type Invalidate struct {
	TargetType models.ResponseType
}

// Clear removes cached entries of TargetType
type Clear struct {
	TargetType          models.ResponseType
	ClearOldEntriesOnly bool
}

// ClearAll removes cached entries of every type
type ClearAll struct {
	ClearOldEntriesOnly bool
}

// DoNotCache bypasses the cache
type DoNotCache struct{}

func (Cache) Kind() Kind      { return KindCache }
func (Refresh) Kind() Kind    { return KindRefresh }
func (Offline) Kind() Kind    { return KindOffline }
func (Invalidate) Kind() Kind { return KindInvalidate }
func (Clear) Kind() Kind      { return KindClear }
func (ClearAll) Kind() Kind   { return KindClearAll }
func (DoNotCache) Kind() Kind { return KindDoNotCache }

// NewCache returns a Cache directive deferring every field to the configuration
func NewCache() Cache {
	return Cache{DurationMs: Default, ConnectivityTimeoutMs: Default}
}

// NewRefresh returns a Refresh directive deferring every field to the configuration
func NewRefresh() Refresh {
	return Refresh{DurationMs: Default, ConnectivityTimeoutMs: Default}
}
