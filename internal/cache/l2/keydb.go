package l2

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metrics"
	"go-cache-interceptor/internal/models"
)

const (
	indexPrefix = "idx:"
	typesIndex  = "idx:types"
)

// Ensure KeyDBCache implements interfaces.Cache
var _ interfaces.Cache = (*KeyDBCache)(nil)

// KeyDBCache implements L2 cache using Redis/KeyDB. Keys of each response type
// are tracked in a set so a type can be invalidated or cleared without SCAN.
type KeyDBCache struct {
	client interfaces.KeyDbClient
	config *config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewKeyDBCache creates a new KeyDBCache instance with provided client
func NewKeyDBCache(cfg *config.Config, client interfaces.KeyDbClient, logger *zap.Logger) *KeyDBCache {
	return &KeyDBCache{
		client: client,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func typeIndex(responseType models.ResponseType) string {
	return indexPrefix + string(responseType)
}

// Get retrieves an entry, fresh or stale
func (kc *KeyDBCache) Get(key string) (*models.CacheEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), kc.config.GetReadTimeout())
	defer cancel()

	entry, err := kc.get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			kc.logger.Error("L2 cache get error", zap.String("key", key), zap.Error(err))
			metrics.RecordCacheError("l2", "upstream")
		}
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	return entry, true
}

// get returns nil without error for corrupted or expired entries, which are removed
func (kc *KeyDBCache) get(ctx context.Context, key string) (*models.CacheEntry, error) {
	data, err := kc.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		kc.logger.Error("Failed to unmarshal L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "decode")
		kc.client.Del(ctx, key)
		return nil, nil
	}

	if entry.IsExpired(kc.now()) {
		kc.client.Del(ctx, key)
		return nil, nil
	}

	return &entry, nil
}

// Set stores an entry until its stale retention ends
func (kc *KeyDBCache) Set(key string, entry models.CacheEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.set(ctx, key, entry); err != nil {
		kc.logger.Error("Failed to set L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "upstream")
	}
}

func (kc *KeyDBCache) set(ctx context.Context, key string, entry models.CacheEntry) error {
	ttl := entry.TTLRemaining(kc.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := kc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return err
	}
	if err := kc.client.SAdd(ctx, typeIndex(entry.ResponseType), key).Err(); err != nil {
		return err
	}
	return kc.client.SAdd(ctx, typesIndex, string(entry.ResponseType)).Err()
}

// Delete removes entry from KeyDB cache
func (kc *KeyDBCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Del(ctx, key).Err(); err != nil {
		kc.logger.Error("Failed to delete L2 cache entry", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate marks every fresh entry of responseType as stale
func (kc *KeyDBCache) Invalidate(responseType models.ResponseType) int {
	ctx, cancel := context.WithTimeout(context.Background(), kc.config.GetSendTimeout())
	defer cancel()

	keys, err := kc.client.SMembers(ctx, typeIndex(responseType)).Result()
	if err != nil {
		kc.logger.Error("Failed to list L2 entries", zap.String("response_type", string(responseType)), zap.Error(err))
		return 0
	}

	now := kc.now()
	count := 0
	for _, key := range keys {
		entry, err := kc.get(ctx, key)
		if err != nil || entry == nil {
			kc.client.SRem(ctx, typeIndex(responseType), key)
			continue
		}
		if !entry.IsFresh(now) {
			continue
		}
		entry.StaleAt = now.UnixMilli()
		if err := kc.set(ctx, key, *entry); err != nil {
			kc.logger.Error("Failed to invalidate L2 entry", zap.String("key", key), zap.Error(err))
			continue
		}
		count++
	}
	return count
}

// Clear removes the entries of responseType, or every entry when responseType is empty
func (kc *KeyDBCache) Clear(responseType models.ResponseType, oldEntriesOnly bool) int {
	ctx, cancel := context.WithTimeout(context.Background(), kc.config.GetSendTimeout())
	defer cancel()

	types := []string{string(responseType)}
	if responseType == "" {
		var err error
		types, err = kc.client.SMembers(ctx, typesIndex).Result()
		if err != nil {
			kc.logger.Error("Failed to list L2 response types", zap.Error(err))
			return 0
		}
	}

	count := 0
	for _, t := range types {
		count += kc.clearType(ctx, models.ResponseType(t), oldEntriesOnly)
	}
	return count
}

func (kc *KeyDBCache) clearType(ctx context.Context, responseType models.ResponseType, oldEntriesOnly bool) int {
	index := typeIndex(responseType)
	keys, err := kc.client.SMembers(ctx, index).Result()
	if err != nil {
		kc.logger.Error("Failed to list L2 entries", zap.String("response_type", string(responseType)), zap.Error(err))
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	if !oldEntriesOnly {
		removed, err := kc.client.Del(ctx, keys...).Result()
		if err != nil {
			kc.logger.Error("Failed to clear L2 entries", zap.String("response_type", string(responseType)), zap.Error(err))
			return 0
		}
		kc.client.Del(ctx, index)
		kc.client.SRem(ctx, typesIndex, string(responseType))
		return int(removed)
	}

	now := kc.now()
	var stale []string
	for _, key := range keys {
		entry, err := kc.get(ctx, key)
		if err != nil || entry == nil {
			kc.client.SRem(ctx, index, key)
			continue
		}
		if !entry.IsFresh(now) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	removed, err := kc.client.Del(ctx, stale...).Result()
	if err != nil {
		kc.logger.Error("Failed to clear old L2 entries", zap.String("response_type", string(responseType)), zap.Error(err))
		return 0
	}
	members := make([]interface{}, len(stale))
	for i, key := range stale {
		members[i] = key
	}
	kc.client.SRem(ctx, index, members...)
	return int(removed)
}

// Close closes the KeyDB connection
func (kc *KeyDBCache) Close() error {
	return kc.client.Close()
}
