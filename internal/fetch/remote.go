package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RemoteStore is the optional shared tier: a Redis keyspace holding encoded
// results so that bot shards on other processes can reuse them. Remote
// entries always carry a TTL; the store never participates in LRU ordering.
type RemoteStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRemoteStore creates a RemoteStore on top of an existing Redis client.
func NewRemoteStore(client redis.Cmdable, prefix string, ttl time.Duration, logger *zap.Logger) *RemoteStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the encoded result for fingerprint, if the shared tier has it.
func (s *RemoteStore) Get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+fingerprint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("remote get failed: %w", err)
	}
	return data, true, nil
}

// Set stores the encoded result for fingerprint with the store's TTL.
func (s *RemoteStore) Set(ctx context.Context, fingerprint string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+fingerprint, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("remote set failed: %w", err)
	}
	return nil
}

// Fingerprints walks the store's keyspace and streams every stored
// fingerprint to fn, with the key prefix stripped.
func (s *RemoteStore) Fingerprints(ctx context.Context, fn func(fingerprint string)) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 1000).Result()
		if err != nil {
			return fmt.Errorf("remote scan failed: %w", err)
		}
		for _, key := range keys {
			fn(key[len(s.prefix):])
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Delete removes the entry for fingerprint from the shared tier.
func (s *RemoteStore) Delete(ctx context.Context, fingerprint string) error {
	if err := s.client.Del(ctx, s.prefix+fingerprint).Err(); err != nil {
		return fmt.Errorf("remote delete failed: %w", err)
	}
	return nil
}
