// Package config holds the validated runtime configuration for the cache
// and the fetch pipeline.
package config

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCapacity is returned when the cache capacity is not positive.
	ErrInvalidCapacity = errors.New("cache capacity must be positive")
	// ErrInvalidAssetCapacity is returned when the asset cache capacity is not positive.
	ErrInvalidAssetCapacity = errors.New("asset cache capacity must be positive")
)

// Weigher computes the weight of a value about to be cached.
type Weigher func(value any) int64

// ConstantWeigher weighs every value as 1, giving a count-bounded cache.
func ConstantWeigher(any) int64 { return 1 }

// Config is the full configuration for a cache instance.
type Config struct {
	// Capacity bounds the total weight of live entries.
	Capacity int64
	// DefaultTTL applies to entries set without an explicit TTL. Zero means
	// entries never expire.
	DefaultTTL time.Duration
	// Weigher computes entry weights; defaults to ConstantWeigher.
	Weigher Weigher

	// AssetCapacity bounds the asset cache in bytes.
	AssetCapacity int64

	Resilience  ResilienceConfig
	BloomFilter BloomFilterConfig
	Remote      RemoteConfig

	Logger *zap.Logger
}

// ResilienceConfig configures retry and circuit breaking around origin fetches.
type ResilienceConfig struct {
	MaxRetries          int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	CircuitBreaker      gobreaker.Settings
}

// BloomFilterConfig configures the negative guard in front of the remote tier.
type BloomFilterConfig struct {
	ExpectedItems     uint
	FalsePositiveRate float64
}

// RemoteConfig configures the optional shared second tier.
type RemoteConfig struct {
	// KeyPrefix namespaces this process's entries in the shared store.
	KeyPrefix string
	// TTL applies to remote entries; remote entries always expire.
	TTL time.Duration
}

// Option mutates the configuration during construction.
type Option func(*Config) error

// New creates a Config with defaults and applies the given options.
func New(options ...Option) (*Config, error) {
	cfg := &Config{
		Capacity:      1024,
		DefaultTTL:    5 * time.Minute,
		Weigher:       ConstantWeigher,
		AssetCapacity: 64 << 20,
		Resilience: ResilienceConfig{
			MaxRetries:          3,
			InitialInterval:     500 * time.Millisecond,
			MaxInterval:         10 * time.Second,
			Multiplier:          2.0,
			RandomizationFactor: 0.5,
			CircuitBreaker: gobreaker.Settings{
				Name:        "origin",
				MaxRequests: 3,
				Interval:    60 * time.Second,
				Timeout:     30 * time.Second,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures > 5
				},
			},
		},
		BloomFilter: BloomFilterConfig{
			ExpectedItems:     10000,
			FalsePositiveRate: 0.01,
		},
		Remote: RemoteConfig{
			KeyPrefix: "cinder:",
			TTL:       15 * time.Minute,
		},
	}

	for _, opt := range options {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Weigher == nil {
		cfg.Weigher = ConstantWeigher
	}

	return cfg, nil
}

// Validate checks the configuration for caller errors.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.AssetCapacity <= 0 {
		return ErrInvalidAssetCapacity
	}
	return nil
}
