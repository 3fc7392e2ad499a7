// Package config loads operator-facing settings (API tokens, Redis address,
// cache sizing) from a file, with CINDER_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings is everything an operator can configure without recompiling.
type Settings struct {
	Redis  RedisSettings `mapstructure:"redis"`
	Cache  CacheSettings `mapstructure:"cache"`
	Tokens TokenSettings `mapstructure:"tokens"`
}

// RedisSettings configures the optional shared result tier.
type RedisSettings struct {
	// Addr is empty when no shared tier is wanted.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheSettings sizes the result and asset caches.
type CacheSettings struct {
	Capacity      int64         `mapstructure:"capacity"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	AssetCapacity int64         `mapstructure:"asset_capacity"`
}

// TokenSettings holds third-party API credentials.
type TokenSettings struct {
	RocketLeague string `mapstructure:"rocket_league"`
	GitHub       string `mapstructure:"github"`
}

// Load reads settings from path. Missing keys fall back to defaults;
// environment variables such as CINDER_TOKENS_GITHUB override the file.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("cache.capacity", 1024)
	v.SetDefault("cache.default_ttl", 5*time.Minute)
	v.SetDefault("cache.asset_capacity", 64<<20)

	v.SetEnvPrefix("cinder")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &settings, nil
}
