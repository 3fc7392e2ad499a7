package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocinder.io/cinder/internal/cache/lru"
	"gocinder.io/cinder/internal/config"
)

func newTestFetcher(t *testing.T) (*Fetcher, *lru.Cache) {
	t.Helper()
	cfg, err := config.New(func(cfg *config.Config) error {
		cfg.Resilience.MaxRetries = 2
		cfg.Resilience.InitialInterval = time.Millisecond
		cfg.Resilience.MaxInterval = 5 * time.Millisecond
		return nil
	})
	require.NoError(t, err)

	local, err := lru.New(cfg.Capacity, nil)
	require.NoError(t, err)

	f, err := New(cfg, local, nil)
	require.NoError(t, err)
	return f, local
}

func TestDoMemoizes(t *testing.T) {
	f, _ := newTestFetcher(t)

	var calls atomic.Int64
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "result", nil
	}

	for i := 0; i < 3; i++ {
		var got string
		require.NoError(t, f.Do(context.Background(), "fp", &got, time.Minute, fn))
		assert.Equal(t, "result", got)
	}

	assert.Equal(t, int64(1), calls.Load())
}

func TestDoDistinctFingerprints(t *testing.T) {
	f, _ := newTestFetcher(t)

	var calls atomic.Int64
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	var a, b int64
	require.NoError(t, f.Do(context.Background(), "fp-a", &a, time.Minute, fn))
	require.NoError(t, f.Do(context.Background(), "fp-b", &b, time.Minute, fn))

	assert.Equal(t, int64(2), calls.Load())
	assert.NotEqual(t, a, b)
}

func TestDoErrorsPassThroughUncached(t *testing.T) {
	f, _ := newTestFetcher(t)

	origin := errors.New("origin exploded")
	var calls atomic.Int64
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, origin
	}

	var got string
	err := f.Do(context.Background(), "fp", &got, time.Minute, fn)
	assert.ErrorIs(t, err, origin)

	// A failed fetch must not be memoized.
	err = f.Do(context.Background(), "fp", &got, time.Minute, fn)
	assert.ErrorIs(t, err, origin)
	assert.Equal(t, int64(2), calls.Load())
}

type tempErr struct{}

func (tempErr) Error() string   { return "blip" }
func (tempErr) Temporary() bool { return true }

func TestDoRetriesTemporaryErrors(t *testing.T) {
	f, _ := newTestFetcher(t)

	var calls atomic.Int64
	fn := func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, tempErr{}
		}
		return "ok", nil
	}

	var got string
	require.NoError(t, f.Do(context.Background(), "fp", &got, time.Minute, fn))
	assert.Equal(t, "ok", got)
	assert.Equal(t, int64(2), calls.Load())
}

func TestDoDeduplicatesConcurrentMisses(t *testing.T) {
	f, _ := newTestFetcher(t)

	var calls atomic.Int64
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = f.Do(context.Background(), "fp", &results[i], time.Minute, fn)
		}(i)
	}

	// Give the goroutines time to pile onto the singleflight group.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent misses for one fingerprint must share a fetch")
	for _, got := range results {
		assert.Equal(t, "shared", got)
	}
}

func TestForget(t *testing.T) {
	f, local := newTestFetcher(t)

	var calls atomic.Int64
	fn := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "result", nil
	}

	var got string
	require.NoError(t, f.Do(context.Background(), "fp", &got, time.Minute, fn))
	require.NoError(t, f.Forget(context.Background(), "fp"))
	assert.Equal(t, 0, local.Len())

	require.NoError(t, f.Do(context.Background(), "fp", &got, time.Minute, fn))
	assert.Equal(t, int64(2), calls.Load())
}

func TestDoSkipsForeignLocalEntry(t *testing.T) {
	f, local := newTestFetcher(t)

	// Simulate a caller manually storing a non-encoded value under the
	// fingerprint; the fetcher must refetch rather than misdecode it.
	require.NoError(t, local.Set("fp", 42, 1, 0))

	var got string
	require.NoError(t, f.Do(context.Background(), "fp", &got, time.Minute, func(ctx context.Context) (any, error) {
		return "fresh", nil
	}))
	assert.Equal(t, "fresh", got)
}
