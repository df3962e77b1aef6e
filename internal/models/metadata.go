package models

import (
	"encoding/json"
	"time"
)

// CallDuration splits the time spent on a call
type CallDuration struct {
	Network time.Duration
	Store   time.Duration
	Total   time.Duration
}

// CacheMetadata describes the provenance of one emission
type CacheMetadata struct {
	Token        CacheToken
	Err          error
	CallDuration CallDuration
}

// WithTotal returns a copy with the total call duration set
func (m CacheMetadata) WithTotal(total time.Duration) CacheMetadata {
	m.CallDuration.Total = total
	return m
}

// MetadataHolder is implemented by response types able to carry cache metadata
type MetadataHolder interface {
	SetCacheMetadata(metadata CacheMetadata)
}

// MetadataField can be embedded in a response struct to make it a MetadataHolder.
// SetCacheMetadata has a pointer receiver, so only *T is a holder: consume such
// responses as *T (Single[*User], not Single[User]), otherwise the value arrives
// without metadata, or fails with metadata_unsupported when merging.
type MetadataField struct {
	Metadata *CacheMetadata `json:"-"`
}

// SetCacheMetadata implements MetadataHolder
func (f *MetadataField) SetCacheMetadata(metadata CacheMetadata) {
	f.Metadata = &metadata
}

// CacheMetadata returns the attached metadata, nil when none was attached
func (f *MetadataField) CacheMetadata() *CacheMetadata {
	return f.Metadata
}

type metadataJSON struct {
	CallID       string         `json:"call_id"`
	ResponseType ResponseType   `json:"response_type"`
	Operation    OperationType  `json:"operation"`
	Status       CacheStatus    `json:"status"`
	Mode         string         `json:"mode"`
	RequestKey   string         `json:"request_key,omitempty"`
	URL          string         `json:"url,omitempty"`
	FetchDate    time.Time      `json:"fetch_date"`
	CacheDate    *time.Time     `json:"cache_date,omitempty"`
	ExpiryDate   *time.Time     `json:"expiry_date,omitempty"`
	Error        string         `json:"error,omitempty"`
	Duration     durationMsJSON `json:"call_duration_ms"`
}

type durationMsJSON struct {
	Network int64 `json:"network"`
	Store   int64 `json:"store"`
	Total   int64 `json:"total"`
}

// MarshalJSON renders the metadata for diagnostics consumers
func (m CacheMetadata) MarshalJSON() ([]byte, error) {
	out := metadataJSON{
		CallID:       m.Token.CallID,
		ResponseType: m.Token.Instruction.ResponseType,
		Status:       m.Token.Status,
		Mode:         m.Token.Mode.String(),
		RequestKey:   m.Token.RequestKey,
		URL:          m.Token.URL,
		FetchDate:    m.Token.FetchDate,
		Duration: durationMsJSON{
			Network: m.CallDuration.Network.Milliseconds(),
			Store:   m.CallDuration.Store.Milliseconds(),
			Total:   m.CallDuration.Total.Milliseconds(),
		},
	}
	if m.Token.Instruction.Operation != nil {
		out.Operation = m.Token.Instruction.Operation.Type()
	}
	if !m.Token.CacheDate.IsZero() {
		out.CacheDate = &m.Token.CacheDate
	}
	if !m.Token.ExpiryDate.IsZero() {
		out.ExpiryDate = &m.Token.ExpiryDate
	}
	if m.Err != nil {
		out.Error = m.Err.Error()
	}
	return json.Marshal(out)
}

// ResponseWrapper carries one upstream emission through the pipeline
type ResponseWrapper struct {
	ResponseType ResponseType
	Response     any
	Metadata     CacheMetadata
}

// Emission is a value or terminal error delivered to the caller
type Emission struct {
	Response any
	Err      error
}
