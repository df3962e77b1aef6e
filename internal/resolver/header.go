package resolver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go-cache-interceptor/internal/models"
)

// HeaderName is the request header carrying a serialised CacheInstruction
const HeaderName = "X-Cache-Instruction"

type wireInstruction struct {
	ResponseType          models.ResponseType  `json:"response_type"`
	Operation             models.OperationType `json:"operation"`
	DurationMs            int64                `json:"duration_ms,omitempty"`
	ConnectivityTimeoutMs int64                `json:"connectivity_timeout_ms,omitempty"`
	FreshOnly             bool                 `json:"fresh_only,omitempty"`
	FilterFinal           bool                 `json:"filter_final,omitempty"`
	MergeOnNextOnError    *bool                `json:"merge_on_next_on_error,omitempty"`
	Encrypt               bool                 `json:"encrypt,omitempty"`
	Compress              bool                 `json:"compress,omitempty"`
	All                   bool                 `json:"all,omitempty"`
	ClearOldEntriesOnly   bool                 `json:"clear_old_entries_only,omitempty"`
}

// Serialise encodes an instruction for the transport header. Durations are
// carried with millisecond precision.
func Serialise(instruction models.CacheInstruction) (string, error) {
	wire := wireInstruction{ResponseType: instruction.ResponseType}

	switch op := instruction.Operation.(type) {
	case models.Cache:
		wire.Operation = models.OperationCache
		wire.DurationMs = op.Duration.Milliseconds()
		wire.ConnectivityTimeoutMs = op.ConnectivityTimeout.Milliseconds()
		wire.Encrypt = op.Encrypt
		wire.Compress = op.Compress
		setPolicy(&wire, op.ExpiringPolicy)
	case models.Refresh:
		wire.Operation = models.OperationRefresh
		wire.DurationMs = op.Duration.Milliseconds()
		wire.ConnectivityTimeoutMs = op.ConnectivityTimeout.Milliseconds()
		setPolicy(&wire, op.ExpiringPolicy)
	case models.Offline:
		wire.Operation = models.OperationOffline
		setPolicy(&wire, op.ExpiringPolicy)
	case models.DoNotCache:
		wire.Operation = models.OperationDoNotCache
	case models.Invalidate:
		wire.Operation = models.OperationInvalidate
	case models.Clear:
		wire.Operation = models.OperationClear
		wire.All = op.All
		wire.ClearOldEntriesOnly = op.ClearOldEntriesOnly
	default:
		return "", models.NewSerialisationError(fmt.Sprintf("cannot serialise operation %T", instruction.Operation), nil)
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return "", models.NewSerialisationError("failed to encode instruction", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func setPolicy(wire *wireInstruction, policy models.ExpiringPolicy) {
	wire.FreshOnly = policy.FreshOnly
	wire.FilterFinal = policy.FilterFinal
	wire.MergeOnNextOnError = policy.MergeOnNextOnError.Ptr()
}

// Deserialise decodes a header value produced by Serialise
func Deserialise(value string) (*models.CacheInstruction, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, models.NewSerialisationError("instruction header is not base64url", err)
	}

	var wire wireInstruction
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, models.NewSerialisationError("instruction header is not valid JSON", err)
	}
	if wire.ResponseType == "" {
		return nil, models.NewSerialisationError("instruction header has no response type", nil)
	}

	policy := models.ExpiringPolicy{
		FreshOnly:          wire.FreshOnly,
		FilterFinal:        wire.FilterFinal,
		MergeOnNextOnError: models.OptionalBoolFromPtr(wire.MergeOnNextOnError),
	}

	var op models.Operation
	switch wire.Operation {
	case models.OperationCache:
		op = models.Cache{
			ExpiringPolicy:      policy,
			Duration:            time.Duration(wire.DurationMs) * time.Millisecond,
			ConnectivityTimeout: time.Duration(wire.ConnectivityTimeoutMs) * time.Millisecond,
			Encrypt:             wire.Encrypt,
			Compress:            wire.Compress,
		}
	case models.OperationRefresh:
		op = models.Refresh{
			ExpiringPolicy:      policy,
			Duration:            time.Duration(wire.DurationMs) * time.Millisecond,
			ConnectivityTimeout: time.Duration(wire.ConnectivityTimeoutMs) * time.Millisecond,
		}
	case models.OperationOffline:
		op = models.Offline{ExpiringPolicy: policy}
	case models.OperationDoNotCache:
		op = models.DoNotCache{}
	case models.OperationInvalidate:
		op = models.Invalidate{}
	case models.OperationClear:
		op = models.Clear{All: wire.All, ClearOldEntriesOnly: wire.ClearOldEntriesOnly}
	default:
		return nil, models.NewSerialisationError(fmt.Sprintf("unknown operation %q", string(wire.Operation)), nil)
	}

	instruction := models.NewCacheInstruction(wire.ResponseType, op)
	return &instruction, nil
}
