package models

import (
	"fmt"
	"time"
)

// OperationType names an Operation variant
type OperationType string

const (
	OperationCache      OperationType = "CACHE"
	OperationRefresh    OperationType = "REFRESH"
	OperationOffline    OperationType = "OFFLINE"
	OperationDoNotCache OperationType = "DO_NOT_CACHE"
	OperationInvalidate OperationType = "INVALIDATE"
	OperationClear      OperationType = "CLEAR"
)

// Operation is the caching behaviour resolved for a call. The set of
// implementations is closed: Cache, Refresh, Offline, DoNotCache, Invalidate, Clear.
type Operation interface {
	Type() OperationType
	sealed()
}

// ExpiringPolicy holds the fields shared by the expiring family
type ExpiringPolicy struct {
	FreshOnly          bool
	FilterFinal        bool
	MergeOnNextOnError OptionalBool
}

// Policy returns the expiring policy
func (p ExpiringPolicy) Policy() ExpiringPolicy {
	return p
}

// Expiring is implemented by Cache, Refresh and Offline
type Expiring interface {
	Operation
	Policy() ExpiringPolicy
}

// Cache serves cached data and refreshes it from the network once it expires
type Cache struct {
	ExpiringPolicy
	Duration            time.Duration
	ConnectivityTimeout time.Duration
	Encrypt             bool
	Compress            bool
}

// Refresh ignores the cached freshness and always fetches from the network
type Refresh struct {
	ExpiringPolicy
	Duration            time.Duration
	ConnectivityTimeout time.Duration
}

// Offline serves cached data only
type Offline struct {
	ExpiringPolicy
}

// DoNotCache bypasses the cache entirely
type DoNotCache struct{}

// Invalidate marks the cached entries of the instruction's response type as stale
type Invalidate struct{}

// Clear removes cached entries of the instruction's response type, or of every type when All is set
type Clear struct {
	All                 bool
	ClearOldEntriesOnly bool
}

func (Cache) Type() OperationType      { return OperationCache }
func (Refresh) Type() OperationType    { return OperationRefresh }
func (Offline) Type() OperationType    { return OperationOffline }
func (DoNotCache) Type() OperationType { return OperationDoNotCache }
func (Invalidate) Type() OperationType { return OperationInvalidate }
func (Clear) Type() OperationType      { return OperationClear }

func (Cache) sealed()      {}
func (Refresh) sealed()    {}
func (Offline) sealed()    {}
func (DoNotCache) sealed() {}
func (Invalidate) sealed() {}
func (Clear) sealed()      {}

// AsExpiring returns the expiring view of op when it belongs to the expiring family
func AsExpiring(op Operation) (Expiring, bool) {
	switch o := op.(type) {
	case Cache:
		return o, true
	case Refresh:
		return o, true
	case Offline:
		return o, true
	case DoNotCache, Invalidate, Clear:
		return nil, false
	default:
		panic(fmt.Sprintf("unknown operation %T", op))
	}
}

func (c Cache) String() string {
	return fmt.Sprintf("Cache(duration=%s, connectivityTimeout=%s, freshOnly=%t, filterFinal=%t, mergeOnNextOnError=%s, encrypt=%t, compress=%t)",
		c.Duration, c.ConnectivityTimeout, c.FreshOnly, c.FilterFinal, c.MergeOnNextOnError, c.Encrypt, c.Compress)
}

func (r Refresh) String() string {
	return fmt.Sprintf("Refresh(duration=%s, connectivityTimeout=%s, freshOnly=%t, filterFinal=%t, mergeOnNextOnError=%s)",
		r.Duration, r.ConnectivityTimeout, r.FreshOnly, r.FilterFinal, r.MergeOnNextOnError)
}

func (o Offline) String() string {
	return fmt.Sprintf("Offline(freshOnly=%t, filterFinal=%t, mergeOnNextOnError=%s)",
		o.FreshOnly, o.FilterFinal, o.MergeOnNextOnError)
}

func (DoNotCache) String() string { return "DoNotCache" }
func (Invalidate) String() string { return "Invalidate" }

func (c Clear) String() string {
	return fmt.Sprintf("Clear(all=%t, clearOldEntriesOnly=%t)", c.All, c.ClearOldEntriesOnly)
}
