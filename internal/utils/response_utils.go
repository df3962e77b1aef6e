package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-cache-interceptor/internal/models"
)

// Metadata response headers
const (
	HeaderCacheStatus = "X-Cache-Status"
	HeaderCallID      = "X-Cache-Call-Id"
	HeaderCacheDate   = "X-Cache-Date"
	HeaderExpiryDate  = "X-Cache-Expiry"
	HeaderDuration    = "X-Cache-Duration-Ms"
	HeaderCacheError  = "X-Cache-Error"
)

// IsNullBody reports whether a response body carries no value: empty,
// whitespace only, or the JSON literal null.
func IsNullBody(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DecodeJSON decodes a response body into T. Null bodies are reported as
// empty responses.
func DecodeJSON[T any](data []byte) (T, error) {
	var value T
	if IsNullBody(data) {
		return value, models.NewEmptyResponseError(models.ResponseTypeOf[T]())
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to decode %s: %w", models.ResponseTypeOf[T](), err)
	}
	return value, nil
}

// JSONDecoder returns a decoder producing values of T
func JSONDecoder[T any]() func([]byte) (any, error) {
	return func(data []byte) (any, error) {
		value, err := DecodeJSON[T](data)
		if err != nil {
			return nil, err
		}
		return value, nil
	}
}

// SetMetadataHeaders exposes the metadata of an emission as response headers
func SetMetadataHeaders(header http.Header, metadata models.CacheMetadata) {
	token := metadata.Token
	header.Set(HeaderCacheStatus, token.Status.String())
	if token.CallID != "" {
		header.Set(HeaderCallID, token.CallID)
	}
	if !token.CacheDate.IsZero() {
		header.Set(HeaderCacheDate, token.CacheDate.UTC().Format(time.RFC3339))
	}
	if !token.ExpiryDate.IsZero() {
		header.Set(HeaderExpiryDate, token.ExpiryDate.UTC().Format(time.RFC3339))
	}
	header.Set(HeaderDuration, strconv.FormatInt(metadata.CallDuration.Total.Milliseconds(), 10))
	if metadata.Err != nil {
		header.Set(HeaderCacheError, metadata.Err.Error())
	}
}
