package models

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// CacheStatus describes the freshness and finality of one emission for a call
type CacheStatus string

const (
	StatusInstruction     CacheStatus = "INSTRUCTION"
	StatusNetwork         CacheStatus = "NETWORK"
	StatusFresh           CacheStatus = "FRESH"
	StatusRefreshed       CacheStatus = "REFRESHED"
	StatusStale           CacheStatus = "STALE"
	StatusCouldNotRefresh CacheStatus = "COULD_NOT_REFRESH"
	StatusEmpty           CacheStatus = "EMPTY"
	StatusNotCached       CacheStatus = "NOT_CACHED"
	StatusInvalidated     CacheStatus = "INVALIDATED"
	StatusCleared         CacheStatus = "CLEARED"
)

// AllCacheStatuses returns every known status in declaration order
func AllCacheStatuses() []CacheStatus {
	return []CacheStatus{
		StatusInstruction,
		StatusNetwork,
		StatusFresh,
		StatusRefreshed,
		StatusStale,
		StatusCouldNotRefresh,
		StatusEmpty,
		StatusNotCached,
		StatusInvalidated,
		StatusCleared,
	}
}

// IsFresh reports whether the emission was produced within its time-to-live
func (s CacheStatus) IsFresh() bool {
	switch s {
	case StatusNetwork, StatusFresh, StatusRefreshed, StatusNotCached:
		return true
	case StatusInstruction, StatusStale, StatusCouldNotRefresh, StatusEmpty, StatusInvalidated, StatusCleared:
		return false
	default:
		panic(fmt.Sprintf("unknown cache status %q", string(s)))
	}
}

// IsFinal reports whether the emission is the last value expected for the call
func (s CacheStatus) IsFinal() bool {
	switch s {
	case StatusNetwork, StatusFresh, StatusRefreshed, StatusCouldNotRefresh,
		StatusEmpty, StatusNotCached, StatusInvalidated, StatusCleared:
		return true
	case StatusInstruction, StatusStale:
		return false
	default:
		panic(fmt.Sprintf("unknown cache status %q", string(s)))
	}
}

// String implements fmt.Stringer
func (s CacheStatus) String() string {
	return string(s)
}

// ParseCacheStatus validates a status name
func ParseCacheStatus(str string) (CacheStatus, error) {
	for _, status := range AllCacheStatuses() {
		if string(status) == str {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid cache status '%s'", str)
}

// UnmarshalText implements encoding.TextUnmarshaler for CacheStatus
func (s *CacheStatus) UnmarshalText(text []byte) error {
	status, err := ParseCacheStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for CacheStatus
func (s *CacheStatus) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}
