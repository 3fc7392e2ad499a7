// Package fetch implements the memoizing fetch pipeline the API clients
// run their outbound requests through: result-cache lookup, bloom-guarded
// shared tier, deduplication of concurrent misses, and retry plus circuit
// breaking around the origin call.
package fetch

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"gocinder.io/cinder/internal/cache/lru"
	"gocinder.io/cinder/internal/config"
	"gocinder.io/cinder/internal/retrier"
	"gocinder.io/cinder/pkg/serialization"
)

// FetchFunc performs the single outbound request for one fingerprint and
// returns the decoded result.
type FetchFunc func(ctx context.Context) (any, error)

// Fetcher memoizes origin fetches. Results are stored encoded, so the local
// tier's weigher sees a []byte and a byte-size weigher bounds the cache by
// memory. Origin errors pass through to the caller unmodified apart from
// retry exhaustion wrapping; the caches never mask them.
type Fetcher struct {
	local   *lru.Cache
	remote  *RemoteStore
	breaker *gobreaker.CircuitBreaker
	retrier *retrier.Retrier

	sf       singleflight.Group
	filter   *bloom.BloomFilter
	filterMu sync.Mutex

	weigher    config.Weigher
	defaultTTL time.Duration
	tracer     trace.Tracer
	logger     *zap.Logger
}

// New creates a Fetcher. remote may be nil, in which case only the local
// result cache is consulted.
func New(cfg *config.Config, local *lru.Cache, remote *RemoteStore) (*Fetcher, error) {
	res := cfg.Resilience
	r, err := retrier.NewRetrier(
		res.MaxRetries,
		res.InitialInterval,
		res.MaxInterval,
		res.Multiplier,
		res.RandomizationFactor,
		retrier.ExponentialBackoff,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		local:      local,
		remote:     remote,
		breaker:    gobreaker.NewCircuitBreaker(res.CircuitBreaker),
		retrier:    r,
		filter:     bloom.NewWithEstimates(cfg.BloomFilter.ExpectedItems, cfg.BloomFilter.FalsePositiveRate),
		weigher:    cfg.Weigher,
		defaultTTL: cfg.DefaultTTL,
		tracer:     otel.Tracer("cinder/fetch"),
		logger:     cfg.Logger,
	}, nil
}

// Do returns the memoized result for fingerprint, fetching it from the
// origin via fn on a miss. The decoded result is written into dst, which
// must be a pointer. ttl zero falls back to the configured default.
func (f *Fetcher) Do(ctx context.Context, fingerprint string, dst any, ttl time.Duration, fn FetchFunc) error {
	ctx, span := f.tracer.Start(ctx, "Fetcher.Do",
		trace.WithAttributes(attribute.String("fingerprint", fingerprint)))
	defer span.End()

	if ttl <= 0 {
		ttl = f.defaultTTL
	}

	if v, ok := f.local.Get(fingerprint); ok {
		// A non-[]byte value means the caller reused this fingerprint for a
		// manual Set; refetch rather than guess at its encoding.
		if data, ok := v.([]byte); ok {
			span.SetAttributes(attribute.String("tier", "local"))
			return f.decode(data, dst)
		}
	}

	v, err, shared := f.sf.Do(fingerprint, func() (any, error) {
		return f.fill(ctx, fingerprint, ttl, fn)
	})
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.Bool("deduplicated", shared))
	return f.decode(v.([]byte), dst)
}

// WarmFilter seeds the bloom filter from the shared tier's existing keys so
// results stored by other processes are visible. Keys stored remotely after
// the warm-up are seen only once this process stores them too; the cost of
// that false negative is a single redundant origin fetch.
func (f *Fetcher) WarmFilter(ctx context.Context) error {
	if f.remote == nil {
		return nil
	}
	return f.remote.Fingerprints(ctx, f.addFilter)
}

// Forget drops the memoized result for fingerprint from every tier.
func (f *Fetcher) Forget(ctx context.Context, fingerprint string) error {
	f.local.Delete(fingerprint)
	if f.remote != nil {
		return f.remote.Delete(ctx, fingerprint)
	}
	return nil
}

// fill resolves a local miss: shared tier first, then the origin.
func (f *Fetcher) fill(ctx context.Context, fingerprint string, ttl time.Duration, fn FetchFunc) ([]byte, error) {
	if f.remote != nil && f.testFilter(fingerprint) {
		data, ok, err := f.remote.Get(ctx, fingerprint)
		if err != nil {
			f.logger.Warn("remote tier lookup failed, falling through to origin",
				zap.String("fingerprint", fingerprint), zap.Error(err))
		} else if ok {
			f.store(fingerprint, data, ttl)
			return data, nil
		}
	}

	value, err := f.fetchOrigin(ctx, fn)
	if err != nil {
		return nil, err
	}

	data, err := f.encode(value)
	if err != nil {
		return nil, err
	}

	f.store(fingerprint, data, ttl)

	if f.remote != nil {
		f.addFilter(fingerprint)
		if err := f.remote.Set(ctx, fingerprint, data); err != nil {
			f.logger.Warn("failed to populate remote tier",
				zap.String("fingerprint", fingerprint), zap.Error(err))
		}
	}

	return data, nil
}

// fetchOrigin runs fn under the circuit breaker with bounded retries.
func (f *Fetcher) fetchOrigin(ctx context.Context, fn FetchFunc) (any, error) {
	return f.breaker.Execute(func() (any, error) {
		var value any
		err := f.retrier.Run(ctx, func() error {
			var fetchErr error
			value, fetchErr = fn(ctx)
			return fetchErr
		})
		return value, err
	})
}

// store caches encoded data locally. A result too heavy for the cache is
// still returned to the caller, just not memoized.
func (f *Fetcher) store(fingerprint string, data []byte, ttl time.Duration) {
	if err := f.local.Set(fingerprint, data, f.weigher(data), ttl); err != nil {
		f.logger.Warn("failed to cache fetched result",
			zap.String("fingerprint", fingerprint), zap.Error(err))
	}
}

func (f *Fetcher) encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := serialization.JSONEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) decode(data []byte, dst any) error {
	return serialization.JSONDecoder(bytes.NewReader(data)).Decode(dst)
}

func (f *Fetcher) testFilter(fingerprint string) bool {
	f.filterMu.Lock()
	defer f.filterMu.Unlock()
	return f.filter.Test([]byte(fingerprint))
}

func (f *Fetcher) addFilter(fingerprint string) {
	f.filterMu.Lock()
	defer f.filterMu.Unlock()
	f.filter.Add([]byte(fingerprint))
}
