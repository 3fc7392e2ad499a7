// Package asset caches fetched binary blobs (avatars, card backgrounds)
// bounded by total byte size. Unlike the result cache it tolerates
// approximate admission, so it is backed by ristretto.
package asset

import (
	"fmt"
	"math"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"
)

// Store is a byte-size-bounded cache for opaque blobs.
type Store struct {
	cache  *ristretto.Cache[string, []byte]
	logger *zap.Logger
}

// NewStore creates a Store bounded by maxBytes.
func NewStore(maxBytes int64, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	numCounters := int64(math.Min(float64(maxBytes/1024)*10, float64(math.MaxInt64)))
	if numCounters < 1000 {
		numCounters = 1000
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: numCounters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	return &Store{cache: c, logger: logger}, nil
}

// Set stores blob under key, costed at its byte length.
func (s *Store) Set(key string, blob []byte, ttl time.Duration) {
	if !s.cache.SetWithTTL(key, blob, int64(len(blob)), ttl) {
		s.logger.Debug("asset dropped by admission policy", zap.String("key", key))
	}
}

// Get returns the blob for key if cached.
func (s *Store) Get(key string) ([]byte, bool) {
	return s.cache.Get(key)
}

// Delete removes the blob for key.
func (s *Store) Delete(key string) {
	s.cache.Del(key)
}

// Wait blocks until pending writes have been applied. Intended for tests.
func (s *Store) Wait() {
	s.cache.Wait()
}

// Close releases the underlying cache.
func (s *Store) Close() {
	s.cache.Close()
}
