package cache

import (
	"crypto/md5"
	"errors"
	"fmt"
	"strings"

	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

// Ensure KeyBuilderImpl implements interfaces.KeyBuilder
var _ interfaces.KeyBuilder = (*KeyBuilderImpl)(nil)

// KeyBuilderImpl implements the KeyBuilder interface
type KeyBuilderImpl struct{}

// NewKeyBuilder creates a new KeyBuilder instance
func NewKeyBuilder() interfaces.KeyBuilder {
	return &KeyBuilderImpl{}
}

// Build creates the cache key of a request: <type>:<METHOD>:md5(url \x00 body).
// The response type prefix keeps the keys of one type together for invalidation.
func (kb *KeyBuilderImpl) Build(responseType models.ResponseType, req models.RequestMetadata) (string, error) {
	if responseType == "" {
		return "", errors.New("response type cannot be empty")
	}

	if req.Method == "" {
		return "", errors.New("request method cannot be empty")
	}

	if req.URL == "" {
		return "", errors.New("request url cannot be empty")
	}

	hasher := md5.New()
	hasher.Write([]byte(req.URL))
	hasher.Write([]byte{0})
	hasher.Write(req.Body)

	return fmt.Sprintf("%s:%s:%x", responseType, strings.ToUpper(req.Method), hasher.Sum(nil)), nil
}
