package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/cache"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
)

// CacheService handles store operations on behalf of the cache layer
type CacheService struct {
	store          interfaces.Cache
	keyBuilder     interfaces.KeyBuilder
	codec          *cache.Codec
	staleRetention time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// NewCacheService creates a new cache service instance
func NewCacheService(store interfaces.Cache, keyBuilder interfaces.KeyBuilder, codec *cache.Codec, staleRetention time.Duration, logger *zap.Logger) *CacheService {
	return &CacheService{
		store:          store,
		keyBuilder:     keyBuilder,
		codec:          codec,
		staleRetention: staleRetention,
		logger:         logger,
		now:            time.Now,
	}
}

// Cached is a decoded store hit
type Cached struct {
	Data  []byte
	Entry models.CacheEntry
	Fresh bool
}

// StoreOptions carries the per-operation storage settings
type StoreOptions struct {
	Duration time.Duration
	Encrypt  bool
	Compress bool
}

// Key builds the cache key of a request
func (s *CacheService) Key(responseType models.ResponseType, req models.RequestMetadata) (string, error) {
	key, err := s.keyBuilder.Build(responseType, req)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return key, nil
}

// Lookup returns the decoded entry stored under key. Entries that cannot be
// decoded are removed and reported as a miss.
func (s *CacheService) Lookup(key string) (*Cached, bool) {
	timer := metrics.TimeCacheOperation("get", "multi")
	defer timer()

	entry, found := s.store.Get(key)
	if !found {
		metrics.RecordCacheMiss()
		return nil, false
	}

	data, err := s.codec.Decode(*entry)
	if err != nil {
		s.logger.Warn("Failed to decode cached entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("multi", "decode")
		s.store.Delete(key)
		metrics.RecordCacheMiss()
		return nil, false
	}

	fresh := entry.IsFresh(s.now())
	metrics.RecordCacheHit(fresh)

	return &Cached{Data: data, Entry: *entry, Fresh: fresh}, true
}

// Store encodes and saves data, returning the stored entry
func (s *CacheService) Store(key string, responseType models.ResponseType, data []byte, opts StoreOptions) (models.CacheEntry, error) {
	timer := metrics.TimeCacheOperation("set", "multi")
	defer timer()

	payload, encrypted, compressed, err := s.codec.Encode(data, opts.Encrypt, opts.Compress)
	if err != nil {
		metrics.RecordCacheError("multi", "encode")
		return models.CacheEntry{}, err
	}

	entry := models.NewCacheEntry(key, responseType, payload, models.TTL{Fresh: opts.Duration, Stale: s.staleRetention}, s.now())
	entry.Encrypted = encrypted
	entry.Compressed = compressed

	s.store.Set(key, entry)
	return entry, nil
}

// Invalidate marks every entry of responseType as stale
func (s *CacheService) Invalidate(responseType models.ResponseType) int {
	timer := metrics.TimeCacheOperation("invalidate", "multi")
	defer timer()

	count := s.store.Invalidate(responseType)
	s.logger.Debug("Invalidated entries", zap.String("response_type", string(responseType)), zap.Int("count", count))
	return count
}

// Clear removes the entries of responseType, or of every type when responseType is empty
func (s *CacheService) Clear(responseType models.ResponseType, oldEntriesOnly bool) int {
	timer := metrics.TimeCacheOperation("clear", "multi")
	defer timer()

	count := s.store.Clear(responseType, oldEntriesOnly)
	s.logger.Debug("Cleared entries",
		zap.String("response_type", string(responseType)),
		zap.Bool("old_entries_only", oldEntriesOnly),
		zap.Int("count", count))
	return count
}
