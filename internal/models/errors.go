package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies cache failures
type ErrorKind string

const (
	KindConflict            ErrorKind = "conflict"
	KindMetadataUnsupported ErrorKind = "metadata_unsupported"
	KindSerialisation       ErrorKind = "serialisation"
	KindUpstream            ErrorKind = "upstream"
	KindInternalState       ErrorKind = "internal_state"
)

// ErrEmptyResponse is the cause carried by synthetic empty responses
var ErrEmptyResponse = errors.New("empty response")

// CacheError is a typed cache failure
type CacheError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// Is matches any CacheError of the same kind, so callers can test
// errors.Is(err, &CacheError{Kind: KindConflict})
func (e *CacheError) Is(target error) bool {
	t, ok := target.(*CacheError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is
var (
	ErrConflict            = &CacheError{Kind: KindConflict}
	ErrMetadataUnsupported = &CacheError{Kind: KindMetadataUnsupported}
	ErrSerialisation       = &CacheError{Kind: KindSerialisation}
	ErrUpstream            = &CacheError{Kind: KindUpstream}
	ErrInternalState       = &CacheError{Kind: KindInternalState}
)

// NewConflictError names both directive kinds found on one call
func NewConflictError(responseType ResponseType, existing, found string) *CacheError {
	return &CacheError{
		Kind: KindConflict,
		Message: fmt.Sprintf("More than one cache directive defined for call returning %s, found %s after existing directive %s."+
			" Only one directive can be used for this call.", responseType, found, existing),
	}
}

// NewMetadataUnsupportedError is returned when metadata must be merged into a response that cannot hold it
func NewMetadataUnsupportedError(responseType ResponseType) *CacheError {
	return &CacheError{
		Kind: KindMetadataUnsupported,
		Message: fmt.Sprintf("Could not add cache metadata to response '%s'."+
			" If you want to enable metadata for this type, it needs to implement the 'MetadataHolder' interface."+
			" The 'mergeOnNextOnError' directive will cause an error to be returned for types"+
			" that do not support cache metadata.", responseType),
	}
}

// NewSerialisationError wraps an encoding failure
func NewSerialisationError(message string, cause error) *CacheError {
	return &CacheError{Kind: KindSerialisation, Message: message, Cause: cause}
}

// NewUpstreamError wraps a failure of the cache or network layer
func NewUpstreamError(message string, cause error) *CacheError {
	return &CacheError{Kind: KindUpstream, Message: message, Cause: cause}
}

// NewEmptyResponseError is the error carried by synthetic empty wrappers
func NewEmptyResponseError(responseType ResponseType) *CacheError {
	return NewUpstreamError(fmt.Sprintf("no response available for %s", responseType), ErrEmptyResponse)
}

// NewInternalStateError signals an invariant violation
func NewInternalStateError() *CacheError {
	return &CacheError{Kind: KindInternalState, Message: "Something went wrong"}
}
