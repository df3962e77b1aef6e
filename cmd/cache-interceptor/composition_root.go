package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/cache"
	"go-cache-interceptor/internal/cache/l1"
	"go-cache-interceptor/internal/cache/l2"
	"go-cache-interceptor/internal/cache/multi"
	"go-cache-interceptor/internal/cache/noop"
	"go-cache-interceptor/internal/cache/service"
	"go-cache-interceptor/internal/cache_rules"
	"go-cache-interceptor/internal/client"
	"go-cache-interceptor/internal/config"
	"go-cache-interceptor/internal/emptyresponse"
	"go-cache-interceptor/internal/httpserver"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/metadata"
	"go-cache-interceptor/internal/network"
	"go-cache-interceptor/internal/resolver"
	"go-cache-interceptor/internal/upstream"
)

// CompositionRoot holds all application dependencies and wires them together.
type CompositionRoot struct {
	Config *config.Config
	Logger *zap.Logger
	Rules  *cache_rules.Watcher

	// Store components
	L1Cache     *l1.BigCache
	L2Cache     *l2.KeyDBCache
	KeyDBClient *l2.RedisKeyDbClient
	Store       interfaces.Cache

	// Metadata consumers
	Broadcaster *metadata.Broadcaster
	Recorder    *metadata.Recorder
	RedisSink   *metadata.RedisSink

	// Services
	CacheService *service.CacheService
	Fetcher      *network.HTTPFetcher
	Factory      *emptyresponse.Factory
	Client       *client.Client
	HTTPServer   *httpserver.Server

	// background stops the rules watcher and the metadata consumers
	background context.Context
	cancel     context.CancelFunc
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Configuration and logger
// 2. Cache rules (directives per route and the default caching predicate)
// 3. Store levels (L1, L2) combined into one store
// 4. Services (codec, CacheService, network fetcher)
// 5. Metadata channel (broadcaster, recorder, Redis sink)
// 6. Client (resolver, upstream source, interception pipeline)
// 7. HTTP server
func NewCompositionRoot() (*CompositionRoot, error) {
	root := &CompositionRoot{}
	root.background, root.cancel = context.WithCancel(context.Background())

	steps := []struct {
		name string
		fn   func() error
	}{
		{"configuration", root.loadConfig},
		{"cache rules", root.loadCacheRules},
		{"cache components", root.initCacheComponents},
		{"services", root.initServices},
		{"metadata channel", root.initMetadata},
		{"client", root.initClient},
		{"HTTP server", root.initHTTPServer},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			_ = root.Cleanup()
			return nil, fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	return root, nil
}

// loadConfig loads the configuration, then builds the configured logger
func (r *CompositionRoot) loadConfig() error {
	bootstrap, err := zap.NewProduction()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(GetEnv("CACHE_CONFIG_FILE", "/app/cache_config.yaml"), bootstrap)
	if err != nil {
		return err
	}
	r.Config = cfg

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	r.Logger = logger

	redis.SetLogger(NewRedisLogger(logger))
	otel.SetErrorHandler(NewOtelErrorHandler(logger))
	return nil
}

// loadCacheRules loads the rules file and starts watching it. A missing
// file runs without rules.
func (r *CompositionRoot) loadCacheRules() error {
	rulesPath := GetEnv("CACHE_RULES_FILE", "/app/cache_rules.yaml")
	if _, err := os.Stat(rulesPath); errors.Is(err, os.ErrNotExist) {
		r.Logger.Info("No cache rules file, only declared directives apply", zap.String("path", rulesPath))
		return nil
	}

	watcher, err := cache_rules.NewWatcher(rulesPath, 0, r.Logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(r.background); err != nil {
		r.Logger.Warn("Failed to watch cache rules, reloads disabled", zap.Error(err))
	}
	r.Rules = watcher
	return nil
}

// ReloadRules rereads the rules file. A failed reload keeps the current rules.
func (r *CompositionRoot) ReloadRules() {
	if r.Rules == nil {
		r.Logger.Info("Reload requested but no cache rules file is loaded")
		return
	}
	if err := r.Rules.Reload(); err != nil {
		r.Logger.Error("Failed to reload cache rules", zap.Error(err))
		return
	}
	r.Logger.Info("Cache rules reloaded")
}

// initCacheComponents initializes the store levels
func (r *CompositionRoot) initCacheComponents() error {
	if err := r.initL1Cache(); err != nil {
		return fmt.Errorf("failed to initialize L1 cache: %w", err)
	}
	r.initL2Cache()

	var levels []interfaces.Cache
	if r.L1Cache != nil {
		levels = append(levels, r.L1Cache)
	}
	if r.L2Cache != nil {
		levels = append(levels, r.L2Cache)
	}

	switch len(levels) {
	case 0:
		r.Logger.Warn("No store level enabled, every call goes to the network")
		r.Store = noop.NewNoOpCache()
	case 1:
		r.Store = levels[0]
	default:
		r.Store = multi.NewMultiCache(levels, r.Logger, r.Config.MultiCache.EnablePropagation)
	}
	return nil
}

// initL1Cache initializes the L1 cache (BigCache)
func (r *CompositionRoot) initL1Cache() error {
	if !r.Config.BigCache.Enabled {
		r.Logger.Info("BigCache (L1) disabled")
		return nil
	}
	l1Cache, err := l1.NewBigCache(&r.Config.BigCache, r.Logger)
	if err != nil {
		return err
	}
	r.L1Cache = l1Cache
	r.Logger.Info("BigCache (L1) initialized", zap.Int("size_mb", r.Config.BigCache.Size))
	return nil
}

// initL2Cache initializes the L2 cache (KeyDB). A connection failure runs without L2.
func (r *CompositionRoot) initL2Cache() {
	if !r.Config.KeyDB.Enabled {
		r.Logger.Info("KeyDB (L2) disabled")
		return
	}

	keydbURL := GetKeyDBURL(r.Config.KeyDB.URL, r.Logger)
	keydbClient, err := l2.NewRedisKeyDbClient(&r.Config.KeyDB, keydbURL, r.Logger)
	if err != nil {
		r.Logger.Warn("Failed to connect to KeyDB, falling back to no L2 cache",
			zap.String("keydb_url", RedactURL(keydbURL)),
			zap.Error(err))
		return
	}

	r.KeyDBClient = keydbClient
	r.L2Cache = l2.NewKeyDBCache(r.Config, keydbClient, r.Logger)
	r.Logger.Info("KeyDB (L2) initialized", zap.String("keydb_url", RedactURL(keydbURL)))
}

// initServices initializes the codec, the cache service and the fetcher
func (r *CompositionRoot) initServices() error {
	key, err := r.Config.EncryptionKey()
	if err != nil {
		return fmt.Errorf("invalid encryption key: %w", err)
	}
	codec, err := cache.NewCodec(key, r.Logger)
	if err != nil {
		return err
	}

	r.CacheService = service.NewCacheService(
		r.Store,
		cache.NewKeyBuilder(),
		codec,
		r.Config.Cache.StaleRetention,
		r.Logger,
	)
	r.Fetcher = network.NewHTTPFetcher(r.Config.Network, nil, r.Logger)
	return nil
}

// initMetadata starts the consumers of the metadata channel
func (r *CompositionRoot) initMetadata() error {
	r.Broadcaster = metadata.NewBroadcaster(r.Logger)

	r.Recorder = metadata.NewRecorder(r.Config.Metadata.RecentSize)
	go r.Recorder.Consume(r.background, r.Broadcaster.Subscribe(r.Config.Metadata.BufferSize))

	channel := r.Config.Metadata.RedisChannel
	if channel == "" {
		return nil
	}
	if r.KeyDBClient == nil {
		r.Logger.Warn("Metadata Redis channel configured without KeyDB, not forwarding",
			zap.String("channel", channel))
		return nil
	}
	r.RedisSink = metadata.NewRedisSink(r.KeyDBClient, channel, r.Logger)
	go r.RedisSink.Consume(r.background, r.Broadcaster.Subscribe(r.Config.Metadata.BufferSize))
	r.Logger.Info("Forwarding metadata to Redis", zap.String("channel", channel))
	return nil
}

// initClient wires the resolver, the upstream source and the client
func (r *CompositionRoot) initClient() error {
	r.Factory = emptyresponse.NewFactory()

	var predicate resolver.DefaultPredicate
	var rules interfaces.DirectiveClassifier
	if r.Rules != nil {
		predicate = r.Rules.ShouldCache
		rules = r.Rules
	}

	r.Client = client.New(client.Params{
		Config:    r.Config.Cache,
		Resolver:  resolver.NewResolver(r.Config.Cache, predicate, r.Logger),
		Rules:     rules,
		Service:   r.CacheService,
		Source:    upstream.NewSource(r.CacheService, r.Fetcher, r.Config.Cache, r.Logger),
		Fetcher:   r.Fetcher,
		Factory:   r.Factory,
		Publisher: r.Broadcaster,
		Logger:    r.Logger,
	})
	return nil
}

// initHTTPServer initializes the HTTP server
func (r *CompositionRoot) initHTTPServer() error {
	r.HTTPServer = httpserver.NewServer(httpserver.Params{
		Client:       r.Client,
		CacheService: r.CacheService,
		Factory:      r.Factory,
		Recorder:     r.Recorder,
		Broadcaster:  r.Broadcaster,
		StreamBuffer: r.Config.Metadata.BufferSize,
		Logger:       r.Logger,
	})
	return nil
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errs []error

	if r.cancel != nil {
		r.cancel()
	}
	if r.Rules != nil {
		if err := r.Rules.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop rules watcher: %w", err))
		}
	}
	if r.Broadcaster != nil {
		r.Broadcaster.Close()
	}

	if r.L1Cache != nil {
		if err := r.L1Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close L1 cache: %w", err))
		}
	}
	if r.L2Cache != nil {
		if err := r.L2Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close L2 cache: %w", err))
		}
	}

	if r.Logger != nil {
		// stderr sync fails on some platforms, ignore
		_ = r.Logger.Sync()
	}

	return errors.Join(errs...)
}

// GetSocketPath returns the Unix socket path for the server
func (r *CompositionRoot) GetSocketPath() string {
	if path := os.Getenv("CACHE_SOCKET_PATH"); path != "" {
		return path
	}
	if r.Config.Server.SocketPath != "" {
		return r.Config.Server.SocketPath
	}
	return "/tmp/cache.sock"
}
