// Package cinder provides a bounded, expiry-aware result cache for chat-bot
// cogs that wrap rate-limited third-party APIs, plus the memoizing fetch
// pipeline the bundled API clients run their outbound requests through.
package cinder

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gocinder.io/cinder/internal/cache/asset"
	"gocinder.io/cinder/internal/cache/lru"
	"gocinder.io/cinder/internal/config"
	"gocinder.io/cinder/internal/fetch"
)

// Weigher computes the weight of a value about to be cached.
type Weigher = config.Weigher

// FetchFunc performs the single outbound request for one fingerprint.
type FetchFunc = fetch.FetchFunc

// Option configures a Cache during construction.
type Option func(*config.Config) error

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config.Config) error {
		cfg.Logger = logger
		return nil
	}
}

// WithCapacity bounds the total weight of live entries.
func WithCapacity(capacity int64) Option {
	return func(cfg *config.Config) error {
		cfg.Capacity = capacity
		return nil
	}
}

// WithDefaultTTL sets the expiry applied to entries stored without an
// explicit TTL. Zero means entries never expire.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(cfg *config.Config) error {
		cfg.DefaultTTL = ttl
		return nil
	}
}

// WithWeigher sets the function that computes entry weights. The default
// weighs every entry as 1, bounding the cache by entry count.
func WithWeigher(weigher Weigher) Option {
	return func(cfg *config.Config) error {
		if weigher == nil {
			return fmt.Errorf("weigher must not be nil")
		}
		cfg.Weigher = weigher
		return nil
	}
}

// WithAssetCapacity bounds the asset cache in bytes.
func WithAssetCapacity(maxBytes int64) Option {
	return func(cfg *config.Config) error {
		cfg.AssetCapacity = maxBytes
		return nil
	}
}

// Cache is the result cache plus its fetch pipeline and asset store.
type Cache struct {
	local   *lru.Cache
	fetcher *fetch.Fetcher
	assets  *asset.Store
	cfg     *config.Config
	logger  *zap.Logger
}

// New creates a Cache. remoteClient enables the optional shared Redis tier
// for fetch results and may be nil.
func New(ctx context.Context, remoteClient redis.Cmdable, opts ...Option) (*Cache, error) {
	cfgOpts := make([]config.Option, len(opts))
	for i, opt := range opts {
		cfgOpts[i] = config.Option(opt)
	}
	cfg, err := config.New(cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}

	local, err := lru.New(cfg.Capacity, cfg.Logger)
	if err != nil {
		return nil, err
	}

	assets, err := asset.NewStore(cfg.AssetCapacity, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset cache: %w", err)
	}

	var remote *fetch.RemoteStore
	if remoteClient != nil {
		if err := remoteClient.Ping(ctx).Err(); err != nil {
			assets.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		remote = fetch.NewRemoteStore(remoteClient, cfg.Remote.KeyPrefix, cfg.Remote.TTL, cfg.Logger)
	}

	fetcher, err := fetch.New(cfg, local, remote)
	if err != nil {
		assets.Close()
		return nil, fmt.Errorf("failed to initialize fetcher: %w", err)
	}
	if err := fetcher.WarmFilter(ctx); err != nil {
		cfg.Logger.Warn("failed to warm bloom filter from remote tier", zap.Error(err))
	}

	return &Cache{
		local:   local,
		fetcher: fetcher,
		assets:  assets,
		cfg:     cfg,
		logger:  cfg.Logger,
	}, nil
}

// SetOption adjusts a single Set call.
type SetOption func(*setParams)

type setParams struct {
	weight int64
	ttl    time.Duration
	hasTTL bool
}

// WithWeight overrides the weigher for this entry.
func WithWeight(weight int64) SetOption {
	return func(p *setParams) {
		p.weight = weight
	}
}

// WithTTL overrides the default TTL for this entry. Zero disables expiry.
func WithTTL(ttl time.Duration) SetOption {
	return func(p *setParams) {
		p.ttl = ttl
		p.hasTTL = true
	}
}

// Set inserts or replaces the entry for key, evicting least-recently-used
// entries as needed to stay within capacity.
func (c *Cache) Set(key string, value any, opts ...SetOption) error {
	p := setParams{weight: c.cfg.Weigher(value)}
	for _, opt := range opts {
		opt(&p)
	}
	if !p.hasTTL {
		p.ttl = c.cfg.DefaultTTL
	}
	return c.local.Set(key, value, p.weight, p.ttl)
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	return c.local.Get(key)
}

// Delete removes the entry for key if present.
func (c *Cache) Delete(key string) {
	c.local.Delete(key)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.local.Len()
}

// Weight returns the total weight of live entries.
func (c *Cache) Weight() int64 {
	return c.local.Weight()
}

// Flush removes all locally cached entries.
func (c *Cache) Flush() {
	c.local.Flush()
}

// Fetch returns the memoized result for fingerprint, calling fn on a miss.
// The decoded result is written into dst, which must be a pointer.
func (c *Cache) Fetch(ctx context.Context, fingerprint string, dst any, ttl time.Duration, fn FetchFunc) error {
	return c.fetcher.Do(ctx, fingerprint, dst, ttl, fn)
}

// Forget drops the memoized result for fingerprint from every tier.
func (c *Cache) Forget(ctx context.Context, fingerprint string) error {
	return c.fetcher.Forget(ctx, fingerprint)
}

// AssetSet stores a fetched binary blob (avatar, background) in the
// byte-bounded asset cache.
func (c *Cache) AssetSet(key string, blob []byte, ttl time.Duration) {
	c.assets.Set(key, blob, ttl)
}

// AssetGet returns the cached blob for key.
func (c *Cache) AssetGet(key string) ([]byte, bool) {
	return c.assets.Get(key)
}

// Close releases the cache's resources.
func (c *Cache) Close() error {
	c.assets.Close()
	return nil
}
