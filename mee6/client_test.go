package mee6

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocinder.io/cinder"
)

func newTestCache(t *testing.T) *cinder.Cache {
	t.Helper()
	cache, err := cinder.New(context.Background(), nil,
		cinder.WithCapacity(64),
		cinder.WithDefaultTTL(time.Minute),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func makePage(start, count int) *leaderboardPage {
	board := &leaderboardPage{}
	for i := 0; i < count; i++ {
		board.Players = append(board.Players, &LeaderboardEntry{
			ID:         strconv.Itoa(1000 + start + i),
			Username:   fmt.Sprintf("user%d", start+i),
			Level:      50 - (start+i)/20,
			XP:         int64(100000 - 100*(start+i)),
			DetailedXP: [3]int64{250, 1000, int64(100000 - 100*(start+i))},
		})
	}
	return board
}

func TestGetPlayerFirstPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/leaderboard/1234", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("page"))
		board := makePage(0, 10)
		board.RoleRewards = []*RoleReward{{Rank: 60}, {Rank: 55}}
		require.NoError(t, json.NewEncoder(w).Encode(board))
	}))
	defer server.Close()

	client := New(newTestCache(t), WithAPIBase(server.URL))

	player, err := client.GetPlayer(context.Background(), "1234", "1003")
	require.NoError(t, err)
	assert.Equal(t, "user3", player.Username)
	assert.Equal(t, 3, player.Rank)
	assert.InDelta(t, 0.25, player.Progress(), 1e-9)

	next := player.NextReward()
	require.NotNil(t, next)
	assert.Equal(t, 55, next.Rank)
}

func TestGetPlayerWalksPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		switch page {
		case 0:
			require.NoError(t, json.NewEncoder(w).Encode(makePage(0, pageLimit)))
		default:
			require.NoError(t, json.NewEncoder(w).Encode(makePage(pageLimit, 5)))
		}
	}))
	defer server.Close()

	client := New(newTestCache(t), WithAPIBase(server.URL))

	player, err := client.GetPlayer(context.Background(), "1234", strconv.Itoa(1000+pageLimit+2))
	require.NoError(t, err)
	assert.Equal(t, pageLimit+2, player.Rank)
}

func TestGetPlayerUserMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(makePage(0, 3)))
	}))
	defer server.Close()

	client := New(newTestCache(t), WithAPIBase(server.URL))

	_, err := client.GetPlayer(context.Background(), "1234", "9999")
	var notFound *UserNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "9999", notFound.UserID)
}

func TestGetPlayerGuildNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(newTestCache(t), WithAPIBase(server.URL))

	_, err := client.GetPlayer(context.Background(), "999", "1000")
	var notFound *GuildNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "999", notFound.GuildID)
}

func TestGetPlayerRateLimited(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(newTestCache(t), WithAPIBase(server.URL))

	_, err := client.GetPlayer(context.Background(), "1234", "1000")
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 30*time.Second, limited.RetryAfter)
	assert.Equal(t, int64(1), hits.Load(), "a throttled request must not be retried")
}

func TestGetPlayerMemoizesPages(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.NoError(t, json.NewEncoder(w).Encode(makePage(0, 10)))
	}))
	defer server.Close()

	client := New(newTestCache(t), WithAPIBase(server.URL))

	for _, userID := range []string{"1001", "1002", "1003"} {
		_, err := client.GetPlayer(context.Background(), "1234", userID)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), hits.Load(), "rank commands for one guild must share a cached page")
}

func TestAvatarCached(t *testing.T) {
	var hits atomic.Int64
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/avatars/1001/abc.png", r.URL.Path)
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer cdn.Close()

	cache := newTestCache(t)
	client := New(cache, WithCDNBase(cdn.URL))
	entry := &LeaderboardEntry{ID: "1001", Avatar: "abc"}

	blob, err := client.Avatar(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), blob)

	// Ristretto applies writes asynchronously.
	time.Sleep(20 * time.Millisecond)

	blob, err = client.Avatar(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), blob)
	assert.LessOrEqual(t, hits.Load(), int64(2))
}

func TestXPForLevel(t *testing.T) {
	assert.Equal(t, int64(0), XPForLevel(0))
	assert.Equal(t, int64(100), XPForLevel(1))
	assert.Equal(t, int64(255), XPForLevel(2))
}
