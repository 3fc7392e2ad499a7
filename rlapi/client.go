// Package rlapi is a client for the Rocket League Stats API. Lookups are
// memoized through the result cache so repeated chat commands for the same
// player do not burn through the API's rate limit.
package rlapi

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gocinder.io/cinder"
	"gocinder.io/cinder/internal/utils"
)

const (
	defaultAPIBase   = "https://api.rocketleague.com/api/v1"
	defaultSteamBase = "https://steamcommunity.com"
	userAgent        = "cinder-rlapi"

	playerTTL = 5 * time.Minute
	vanityTTL = 24 * time.Hour
)

// Doer is the minimal HTTP client surface, satisfied by *http.Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithAPIBase overrides the API base URL. Intended for tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimSuffix(base, "/") }
}

// WithSteamBase overrides the Steam community base URL. Intended for tests.
func WithSteamBase(base string) Option {
	return func(c *Client) { c.steamBase = strings.TrimSuffix(base, "/") }
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client calls the Rocket League Stats API.
type Client struct {
	apiBase   string
	steamBase string

	tokenMu sync.RWMutex
	token   string

	httpClient Doer
	cache      *cinder.Cache
	logger     *zap.Logger
}

// New creates a Client authenticated with token. Results are memoized in cache.
func New(token string, cache *cinder.Cache, opts ...Option) *Client {
	c := &Client{
		apiBase:    defaultAPIBase,
		steamBase:  defaultSteamBase,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpdateToken replaces the API token at runtime.
func (c *Client) UpdateToken(token string) {
	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()
}

// GetPlayer returns the ranked profile for playerID on platform.
func (c *Client) GetPlayer(ctx context.Context, playerID string, platform Platform) (*Player, error) {
	playerID, err := normalizePlayerID(platform, playerID)
	if err != nil {
		return nil, err
	}

	if platform == PlatformSteam && !isNumericID(playerID) {
		playerID, err = c.resolveSteamID(ctx, playerID)
		if err != nil {
			return nil, err
		}
	}

	fingerprint := utils.Fingerprint("rlapi", "skills", string(platform), playerID)
	var payload []playerPayload
	err = c.cache.Fetch(ctx, fingerprint, &payload, playerTTL, func(ctx context.Context) (any, error) {
		return c.fetchSkills(ctx, playerID, platform)
	})
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, &PlayerNotFoundError{PlayerID: playerID, Platform: platform}
	}

	return payload[0].toPlayer(platform), nil
}

// FindPlayer looks playerID up on every platform and returns all matches.
func (c *Client) FindPlayer(ctx context.Context, playerID string) ([]*Player, error) {
	var players []*Player
	for _, platform := range AllPlatforms {
		player, err := c.GetPlayer(ctx, playerID, platform)
		if err != nil {
			var notFound *PlayerNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, ErrIllegalUsername) {
				continue
			}
			return nil, err
		}
		players = append(players, player)
	}
	if len(players) == 0 {
		return nil, &PlayerNotFoundError{PlayerID: playerID}
	}
	return players, nil
}

// fetchSkills performs the single outbound playerskills request. Transient
// failures surface as *HTTPError and are retried by the fetch pipeline.
func (c *Client) fetchSkills(ctx context.Context, playerID string, platform Platform) (any, error) {
	url := fmt.Sprintf("%s/%s/playerskills/%s/", c.apiBase, platform, playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.tokenMu.RLock()
	req.Header.Set("Authorization", "Token "+c.token)
	c.tokenMu.RUnlock()
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var payload []playerPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode player skills: %w", err)
		}
		return payload, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "not found"):
		return nil, &PlayerNotFoundError{PlayerID: playerID, Platform: platform}
	default:
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
}

// steamProfile is the subset of the Steam community XML profile we read.
type steamProfile struct {
	XMLName   xml.Name `xml:"profile"`
	SteamID64 string   `xml:"steamID64"`
}

// resolveSteamID resolves a Steam vanity name to its 64-bit ID. Resolutions
// are long-lived, so they are memoized for a day.
func (c *Client) resolveSteamID(ctx context.Context, vanity string) (string, error) {
	fingerprint := utils.Fingerprint("rlapi", "steamvanity", vanity)
	var steamID string
	err := c.cache.Fetch(ctx, fingerprint, &steamID, vanityTTL, func(ctx context.Context) (any, error) {
		url := fmt.Sprintf("%s/id/%s?xml=1", c.steamBase, vanity)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusOK {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Message: "steam profile lookup failed"}
		}

		var profile steamProfile
		if err := xml.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.SteamID64 == "" {
			return nil, &PlayerNotFoundError{PlayerID: vanity, Platform: PlatformSteam}
		}
		return profile.SteamID64, nil
	})
	if err != nil {
		return "", err
	}
	return steamID, nil
}

func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
