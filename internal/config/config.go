package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config represents the main configuration structure
type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	BigCache   BigCacheConfig   `yaml:"bigcache"`
	KeyDB      KeyDBConfig      `yaml:"keydb"`
	MultiCache MultiCacheConfig `yaml:"multi_cache"`
	Network    NetworkConfig    `yaml:"network"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

// CacheConfig holds the global defaults applied to directives
type CacheConfig struct {
	Duration               time.Duration `yaml:"duration" validate:"gt=0"`
	ConnectivityTimeout    time.Duration `yaml:"connectivity_timeout" validate:"gte=0"`
	StaleRetention         time.Duration `yaml:"stale_retention" validate:"gte=0"`
	Encrypt                bool          `yaml:"encrypt"`
	Compress               bool          `yaml:"compress"`
	MergeOnNextOnError     bool          `yaml:"merge_on_next_on_error"`
	AllowNonFinalForSingle bool          `yaml:"allow_non_final_for_single"`
	EncryptionKey          string        `yaml:"encryption_key" validate:"omitempty,hexadecimal,len=64"`
}

// BigCacheConfig configures the in-memory L1 store
type BigCacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Size       int           `yaml:"size" validate:"gte=0"` // MB
	Shards     int           `yaml:"shards" validate:"omitempty,gt=0"`
	LifeWindow time.Duration `yaml:"life_window" validate:"gte=0"`
}

// KeyDBConfig configures the Redis/KeyDB L2 store
type KeyDBConfig struct {
	Enabled    bool             `yaml:"enabled"`
	URL        string           `yaml:"url" validate:"omitempty,url"`
	Connection ConnectionConfig `yaml:"connection"`
	Keepalive  KeepaliveConfig  `yaml:"keepalive"`
}

// ConnectionConfig holds KeyDB timeouts
type ConnectionConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"gte=0"`
	SendTimeout    time.Duration `yaml:"send_timeout" validate:"gte=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gte=0"`
}

// KeepaliveConfig holds KeyDB pool settings
type KeepaliveConfig struct {
	PoolSize       int           `yaml:"pool_size" validate:"gte=0"`
	MaxIdleTimeout time.Duration `yaml:"max_idle_timeout" validate:"gte=0"`
}

// MultiCacheConfig configures how the store levels are combined
type MultiCacheConfig struct {
	// EnablePropagation copies L2 hits into L1
	EnablePropagation bool `yaml:"enable_propagation"`
}

// NetworkConfig configures the HTTP fetcher
type NetworkConfig struct {
	RequestTimeout   time.Duration `yaml:"request_timeout" validate:"gte=0"`
	BreakerEnabled   bool          `yaml:"breaker_enabled"`
	BreakerThreshold int           `yaml:"breaker_threshold" validate:"gte=0"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" validate:"gte=0"`
}

// MetadataConfig configures the metadata channel consumers
type MetadataConfig struct {
	BufferSize   int    `yaml:"buffer_size" validate:"gte=0"`
	RecentSize   int    `yaml:"recent_size" validate:"gte=0"`
	RedisChannel string `yaml:"redis_channel"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	Encoding   string `yaml:"encoding" validate:"oneof=json console"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// ServerConfig configures the diagnostics HTTP server
type ServerConfig struct {
	Address    string `yaml:"address"`
	SocketPath string `yaml:"socket_path"`
}

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	config := Default()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	c := &Config{MultiCache: MultiCacheConfig{EnablePropagation: true}}
	c.applyDefaults()
	return c
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Cache.Duration == 0 {
		c.Cache.Duration = 5 * time.Minute
	}
	if c.Cache.ConnectivityTimeout == 0 {
		c.Cache.ConnectivityTimeout = 30 * time.Second
	}
	if c.Cache.StaleRetention == 0 {
		c.Cache.StaleRetention = 7 * 24 * time.Hour
	}

	if c.BigCache.Size == 0 {
		c.BigCache.Size = 100
	}
	if c.BigCache.Shards == 0 {
		c.BigCache.Shards = 1024
	}
	if c.BigCache.LifeWindow == 0 {
		c.BigCache.LifeWindow = 24 * time.Hour
	}

	if c.KeyDB.Connection.ConnectTimeout == 0 {
		c.KeyDB.Connection.ConnectTimeout = time.Second
	}
	if c.KeyDB.Connection.SendTimeout == 0 {
		c.KeyDB.Connection.SendTimeout = time.Second
	}
	if c.KeyDB.Connection.ReadTimeout == 0 {
		c.KeyDB.Connection.ReadTimeout = time.Second
	}
	if c.KeyDB.Keepalive.PoolSize == 0 {
		c.KeyDB.Keepalive.PoolSize = 10
	}
	if c.KeyDB.Keepalive.MaxIdleTimeout == 0 {
		c.KeyDB.Keepalive.MaxIdleTimeout = 10 * time.Second
	}

	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = 10 * time.Second
	}
	if c.Network.BreakerThreshold == 0 {
		c.Network.BreakerThreshold = 5
	}
	if c.Network.BreakerTimeout == 0 {
		c.Network.BreakerTimeout = 30 * time.Second
	}

	if c.Metadata.BufferSize == 0 {
		c.Metadata.BufferSize = 64
	}
	if c.Metadata.RecentSize == 0 {
		c.Metadata.RecentSize = 100
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}
}

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Cache.Encrypt && c.Cache.EncryptionKey == "" {
		return fmt.Errorf("cache.encrypt requires cache.encryption_key")
	}
	return nil
}

// EncryptionKey decodes the configured store encryption key, nil when none is set
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.Cache.EncryptionKey == "" {
		return nil, nil
	}
	return hex.DecodeString(c.Cache.EncryptionKey)
}

// GetReadTimeout returns the KeyDB read timeout
func (c *Config) GetReadTimeout() time.Duration {
	if c.KeyDB.Connection.ReadTimeout == 0 {
		return time.Second
	}
	return c.KeyDB.Connection.ReadTimeout
}

// GetSendTimeout returns the KeyDB send timeout
func (c *Config) GetSendTimeout() time.Duration {
	if c.KeyDB.Connection.SendTimeout == 0 {
		return time.Second
	}
	return c.KeyDB.Connection.SendTimeout
}
