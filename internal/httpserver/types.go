package httpserver

import (
	"encoding/json"
	"time"

	"go-cache-interceptor/internal/cache_rules"
	"go-cache-interceptor/internal/models"
)

// Payload is the value delivered for fetched bodies. It carries the cache metadata of its emission.
type Payload struct {
	models.MetadataField
	Body json.RawMessage
}

// DirectiveRequest is the JSON form of a directive
type DirectiveRequest struct {
	Type                  string `json:"type"`
	DurationMs            *int64 `json:"duration_ms,omitempty"`
	ConnectivityTimeoutMs *int64 `json:"connectivity_timeout_ms,omitempty"`
	FreshOnly             bool   `json:"fresh_only,omitempty"`
	MergeOnNextOnError    *bool  `json:"merge_on_next_on_error,omitempty"`
	Encrypt               *bool  `json:"encrypt,omitempty"`
	Compress              *bool  `json:"compress,omitempty"`
	Target                string `json:"target,omitempty"`
	ClearOldEntriesOnly   bool   `json:"clear_old_entries_only,omitempty"`
}

func (d DirectiveRequest) spec() cache_rules.DirectiveSpec {
	return cache_rules.DirectiveSpec{
		Type:                d.Type,
		Duration:            msDuration(d.DurationMs),
		ConnectivityTimeout: msDuration(d.ConnectivityTimeoutMs),
		FreshOnly:           d.FreshOnly,
		MergeOnNextOnError:  models.OptionalBoolFromPtr(d.MergeOnNextOnError),
		Encrypt:             models.OptionalBoolFromPtr(d.Encrypt),
		Compress:            models.OptionalBoolFromPtr(d.Compress),
		Target:              d.Target,
		ClearOldEntriesOnly: d.ClearOldEntriesOnly,
	}
}

func msDuration(ms *int64) *time.Duration {
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms) * time.Millisecond
	return &d
}

// FetchRequest runs one call through the cache
type FetchRequest struct {
	URL          string             `json:"url"`
	Method       string             `json:"method"`
	Body         string             `json:"body,omitempty"`
	Headers      map[string]string  `json:"headers,omitempty"`
	Mode         string             `json:"mode,omitempty"`
	ResponseType string             `json:"response_type,omitempty"`
	Directives   []DirectiveRequest `json:"directives,omitempty"`
	Instruction  string             `json:"instruction,omitempty"`
}

// EmissionResponse is one delivered value or error
type EmissionResponse struct {
	Response json.RawMessage       `json:"response,omitempty"`
	Metadata *models.CacheMetadata `json:"metadata,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// FetchResponse lists the emissions of a call
type FetchResponse struct {
	Success   bool               `json:"success"`
	Emissions []EmissionResponse `json:"emissions"`
}

// StoreRequest targets the stored entries of a response type
type StoreRequest struct {
	ResponseType   string `json:"response_type"`
	OldEntriesOnly bool   `json:"old_entries_only,omitempty"`
}

// CountResponse reports how many entries an operation touched
type CountResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// InstructionRequest encodes or decodes an instruction header
type InstructionRequest struct {
	ResponseType string             `json:"response_type,omitempty"`
	Mode         string             `json:"mode,omitempty"`
	Directives   []DirectiveRequest `json:"directives,omitempty"`
	Instruction  string             `json:"instruction,omitempty"`
}

// InstructionResponse describes an instruction and its header form
type InstructionResponse struct {
	Success      bool                 `json:"success"`
	Instruction  string               `json:"instruction,omitempty"`
	ResponseType models.ResponseType  `json:"response_type,omitempty"`
	Operation    models.OperationType `json:"operation,omitempty"`
	Description  string               `json:"description,omitempty"`
}
