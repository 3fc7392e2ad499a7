// Package mee6 is a client for the Mee6 levels API. Leaderboard pages are
// memoized through the result cache and avatars land in the byte-bounded
// asset cache, so a burst of rank commands costs one upstream fetch.
package mee6

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gocinder.io/cinder"
	"gocinder.io/cinder/internal/utils"
)

const (
	defaultAPIBase = "https://mee6.xyz/api/plugins/levels"
	defaultCDNBase = "https://cdn.discordapp.com"
	userAgent      = "cinder-mee6"

	pageLimit = 999
	// maxPages caps the leaderboard walk; Mee6 serves at most ~100k rows.
	maxPages = 100

	pageTTL   = 2 * time.Minute
	avatarTTL = time.Hour
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

// WithCDNBase overrides the avatar CDN base URL. Intended for tests.
func WithCDNBase(base string) Option {
	return func(c *Client) { c.cdnBase = strings.TrimSuffix(base, "/") }
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client calls the Mee6 levels API.
type Client struct {
	apiBase    string
	cdnBase    string
	httpClient Doer
	cache      *cinder.Cache
	logger     *zap.Logger
}

// New creates a Client. Results are memoized in cache.
func New(cache *cinder.Cache, opts ...Option) *Client {
	c := &Client{
		apiBase:    defaultAPIBase,
		cdnBase:    defaultCDNBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPlayer walks the guild's leaderboard until it finds userID and returns
// the user's rank, level and XP progress.
func (c *Client) GetPlayer(ctx context.Context, guildID, userID string) (*Player, error) {
	for page := 0; page < maxPages; page++ {
		board, err := c.getPage(ctx, guildID, page)
		if err != nil {
			return nil, err
		}

		for idx, entry := range board.Players {
			if entry.ID != userID {
				continue
			}
			return &Player{
				LeaderboardEntry: *entry,
				Rank:             page*pageLimit + idx,
				RoleRewards:      board.RoleRewards,
			}, nil
		}

		if len(board.Players) < pageLimit {
			break
		}
	}
	return nil, &UserNotFoundError{GuildID: guildID, UserID: userID}
}

// Avatar returns the PNG avatar for a leaderboard entry, cached by content.
func (c *Client) Avatar(ctx context.Context, entry *LeaderboardEntry) ([]byte, error) {
	url := c.avatarURL(entry)

	if blob, ok := c.cache.AssetGet(url); ok {
		return blob, nil
	}

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
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: "avatar fetch failed"}
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.cache.AssetSet(url, blob, avatarTTL)
	return blob, nil
}

func (c *Client) avatarURL(entry *LeaderboardEntry) string {
	if entry.Avatar == "" {
		disc, _ := strconv.Atoi(entry.Discriminator)
		return fmt.Sprintf("%s/embed/avatars/%d.png", c.cdnBase, disc%5)
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png", c.cdnBase, entry.ID, entry.Avatar)
}

// getPage returns one leaderboard page, memoized through the result cache.
func (c *Client) getPage(ctx context.Context, guildID string, page int) (*leaderboardPage, error) {
	fingerprint := utils.Fingerprint("mee6", "leaderboard", guildID, strconv.Itoa(page))
	var board leaderboardPage
	err := c.cache.Fetch(ctx, fingerprint, &board, pageTTL, func(ctx context.Context) (any, error) {
		return c.fetchPage(ctx, guildID, page)
	})
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// fetchPage performs the single outbound leaderboard request. Transient
// failures surface as *HTTPError and are retried by the fetch pipeline.
func (c *Client) fetchPage(ctx context.Context, guildID string, page int) (any, error) {
	url := fmt.Sprintf("%s/leaderboard/%s?page=%d&limit=%d", c.apiBase, guildID, page, pageLimit)
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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var board leaderboardPage
		if err := json.Unmarshal(body, &board); err != nil {
			return nil, fmt.Errorf("failed to decode leaderboard page: %w", err)
		}
		return &board, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &GuildNotFoundError{GuildID: guildID}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp.Header)}
	default:
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
}

// retryAfter parses a Retry-After header given in whole seconds.
func retryAfter(header http.Header) time.Duration {
	secs, err := strconv.Atoi(header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
