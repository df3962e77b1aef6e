package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func createTestConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache_config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	logger := zaptest.NewLogger(t)

	validConfig := `
cache:
  duration: 10m
  connectivity_timeout: 3s
  stale_retention: 1h
  compress: true
  encrypt: true
  encryption_key: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
  merge_on_next_on_error: true

bigcache:
  enabled: true
  size: 200

multi_cache:
  enable_propagation: false

keydb:
  enabled: true
  url: "redis://localhost:6379"
  connection:
    connect_timeout: 2s
    read_timeout: 2s
  keepalive:
    pool_size: 20

network:
  request_timeout: 5s
  breaker_enabled: true
  breaker_threshold: 3

metadata:
  redis_channel: cache-metadata

logging:
  level: debug
  encoding: console
`

	config, err := LoadConfig(createTestConfigFile(t, validConfig), logger)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Cache.Duration != 10*time.Minute {
		t.Errorf("LoadConfig() Cache.Duration = %v, want 10m", config.Cache.Duration)
	}
	if config.Cache.ConnectivityTimeout != 3*time.Second {
		t.Errorf("LoadConfig() Cache.ConnectivityTimeout = %v, want 3s", config.Cache.ConnectivityTimeout)
	}
	if !config.Cache.Compress || !config.Cache.Encrypt || !config.Cache.MergeOnNextOnError {
		t.Errorf("LoadConfig() cache flags = %+v", config.Cache)
	}
	if !config.BigCache.Enabled || config.BigCache.Size != 200 {
		t.Errorf("LoadConfig() BigCache = %+v", config.BigCache)
	}
	if config.BigCache.Shards != 1024 {
		t.Errorf("LoadConfig() BigCache.Shards = %v, want default 1024", config.BigCache.Shards)
	}
	if config.KeyDB.Connection.ConnectTimeout != 2*time.Second {
		t.Errorf("LoadConfig() KeyDB.Connection.ConnectTimeout = %v, want 2s", config.KeyDB.Connection.ConnectTimeout)
	}
	if config.KeyDB.Connection.SendTimeout != time.Second {
		t.Errorf("LoadConfig() KeyDB.Connection.SendTimeout = %v, want default 1s", config.KeyDB.Connection.SendTimeout)
	}
	if config.KeyDB.Keepalive.PoolSize != 20 {
		t.Errorf("LoadConfig() KeyDB.Keepalive.PoolSize = %v, want 20", config.KeyDB.Keepalive.PoolSize)
	}
	if !config.Network.BreakerEnabled || config.Network.BreakerThreshold != 3 {
		t.Errorf("LoadConfig() Network = %+v", config.Network)
	}
	if config.Metadata.RedisChannel != "cache-metadata" {
		t.Errorf("LoadConfig() Metadata.RedisChannel = %q", config.Metadata.RedisChannel)
	}
	if config.Logging.Level != "debug" || config.Logging.Encoding != "console" {
		t.Errorf("LoadConfig() Logging = %+v", config.Logging)
	}

	key, err := config.EncryptionKey()
	if err != nil {
		t.Fatalf("EncryptionKey() error = %v", err)
	}
	if len(key) != 32 || key[31] != 0x1f {
		t.Errorf("EncryptionKey() = %x", key)
	}
}

func TestLoadConfig_WithDefaults(t *testing.T) {
	config, err := LoadConfig(createTestConfigFile(t, "cache: {}\n"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	defaults := Default()
	if config.Cache != defaults.Cache {
		t.Errorf("LoadConfig() Cache = %+v, want %+v", config.Cache, defaults.Cache)
	}
	if config.Cache.Duration != 5*time.Minute {
		t.Errorf("Default Cache.Duration = %v, want 5m", config.Cache.Duration)
	}
	if config.Cache.StaleRetention != 7*24*time.Hour {
		t.Errorf("Default Cache.StaleRetention = %v, want 7d", config.Cache.StaleRetention)
	}
	if config.Network.RequestTimeout != 10*time.Second {
		t.Errorf("Default Network.RequestTimeout = %v, want 10s", config.Network.RequestTimeout)
	}
	if !config.MultiCache.EnablePropagation {
		t.Errorf("Default MultiCache.EnablePropagation = false, want true")
	}
	if config.Metadata.BufferSize != 64 || config.Metadata.RecentSize != 100 {
		t.Errorf("Default Metadata = %+v", config.Metadata)
	}
	if config.Logging.Level != "info" || config.Logging.Encoding != "json" {
		t.Errorf("Default Logging = %+v", config.Logging)
	}
	if key, err := config.EncryptionKey(); key != nil || err != nil {
		t.Errorf("EncryptionKey() = %v, %v, want nil, nil", key, err)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), zaptest.NewLogger(t))
	if err == nil {
		t.Fatal("LoadConfig() should fail for a missing file")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			content: "cache: [",
			wantErr: "failed to decode YAML config",
		},
		{
			name:    "encrypt without key",
			content: "cache:\n  encrypt: true\n",
			wantErr: "cache.encrypt requires cache.encryption_key",
		},
		{
			name:    "short key",
			content: "cache:\n  encryption_key: abcd\n",
			wantErr: "validation failed",
		},
		{
			name:    "negative timeout",
			content: "network:\n  request_timeout: -1s\n",
			wantErr: "validation failed",
		},
		{
			name:    "unknown log level",
			content: "logging:\n  level: chatty\n",
			wantErr: "validation failed",
		},
		{
			name:    "invalid keydb url",
			content: "keydb:\n  url: \"not a url\"\n",
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(createTestConfigFile(t, tt.content), zaptest.NewLogger(t))
			if err == nil {
				t.Fatalf("LoadConfig() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_TimeoutMethods(t *testing.T) {
	config := &Config{}
	if got := config.GetReadTimeout(); got != time.Second {
		t.Errorf("GetReadTimeout() = %v, want 1s", got)
	}
	if got := config.GetSendTimeout(); got != time.Second {
		t.Errorf("GetSendTimeout() = %v, want 1s", got)
	}

	config.KeyDB.Connection.ReadTimeout = 3 * time.Second
	config.KeyDB.Connection.SendTimeout = 4 * time.Second
	if got := config.GetReadTimeout(); got != 3*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 3s", got)
	}
	if got := config.GetSendTimeout(); got != 4*time.Second {
		t.Errorf("GetSendTimeout() = %v, want 4s", got)
	}
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "cache.log")

	logger, err := NewLogger(LoggingConfig{Level: "info", Encoding: "json", File: logFile, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	logger.Info("written to file")
	logger.Debug("below level")
	_ = logger.Sync()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file = %q, want the info entry", data)
	}
	if strings.Contains(string(data), "below level") {
		t.Errorf("log file contains an entry below the configured level")
	}

	if _, err := NewLogger(LoggingConfig{Level: "chatty"}); err == nil {
		t.Errorf("NewLogger() with unknown level should fail")
	}

	if _, err := NewLogger(LoggingConfig{Level: "warn", Encoding: "console"}); err != nil {
		t.Errorf("NewLogger() console error = %v", err)
	}
}
