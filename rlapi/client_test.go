package rlapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocinder.io/cinder"
)

const skillsPayload = `[{
	"user_name": "Rocketeer",
	"user_id": "76561198000000000",
	"player_skills": [
		{"playlist": 11, "tier": 15, "division": 2, "skill": 1103, "win_streak": 3, "matches_played": 420},
		{"playlist": 13, "tier": 17, "division": 0, "skill": 1244, "win_streak": 1, "matches_played": 911}
	],
	"season_rewards": {"season_level": 4, "wins": 7}
}]`

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

func TestGetPlayer(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/steam/playerskills/76561198000000000/", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, skillsPayload)
	}))
	defer server.Close()

	client := New("secret", newTestCache(t), WithAPIBase(server.URL))

	player, err := client.GetPlayer(context.Background(), "76561198000000000", PlatformSteam)
	require.NoError(t, err)

	assert.Equal(t, "Rocketeer", player.UserName)
	assert.Equal(t, PlatformSteam, player.Platform)
	assert.Equal(t, 17, player.HighestTier)

	doubles := player.Playlist(Doubles)
	require.NotNil(t, doubles)
	assert.Equal(t, 15, doubles.Tier)
	assert.Equal(t, "Diamond III Div III", doubles.RankName())
	assert.Equal(t, 4, player.SeasonRewards.Level)
}

func TestGetPlayerMemoized(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, skillsPayload)
	}))
	defer server.Close()

	client := New("secret", newTestCache(t), WithAPIBase(server.URL))

	for i := 0; i < 3; i++ {
		_, err := client.GetPlayer(context.Background(), "76561198000000000", PlatformSteam)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), hits.Load(), "repeated lookups must be served from the cache")
}

func TestGetPlayerUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Invalid token."}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New("bad", newTestCache(t), WithAPIBase(server.URL))

	_, err := client.GetPlayer(context.Background(), "76561198000000000", PlatformSteam)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetPlayerNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Player not found."}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := New("secret", newTestCache(t), WithAPIBase(server.URL))

	_, err := client.GetPlayer(context.Background(), "76561198000000001", PlatformSteam)
	var notFound *PlayerNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, PlatformSteam, notFound.Platform)
}

func TestGetPlayerRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "upstream broke", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, skillsPayload)
	}))
	defer server.Close()

	client := New("secret", newTestCache(t), WithAPIBase(server.URL))

	player, err := client.GetPlayer(context.Background(), "76561198000000000", PlatformSteam)
	require.NoError(t, err)
	assert.Equal(t, "Rocketeer", player.UserName)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGetPlayerIllegalUsername(t *testing.T) {
	client := New("secret", newTestCache(t))

	_, err := client.GetPlayer(context.Background(), "no!", PlatformPS4)
	assert.ErrorIs(t, err, ErrIllegalUsername)
}

func TestGetPlayerResolvesSteamVanity(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/steam/playerskills/76561198000000000/", r.URL.Path)
		fmt.Fprint(w, skillsPayload)
	}))
	defer api.Close()

	steam := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/id/rocketeer", r.URL.Path)
		fmt.Fprint(w, `<?xml version="1.0"?><profile><steamID64>76561198000000000</steamID64></profile>`)
	}))
	defer steam.Close()

	client := New("secret", newTestCache(t), WithAPIBase(api.URL), WithSteamBase(steam.URL))

	player, err := client.GetPlayer(context.Background(), "rocketeer", PlatformSteam)
	require.NoError(t, err)
	assert.Equal(t, "76561198000000000", player.UserID)
}
