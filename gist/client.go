// Package gist uploads files to gist.github.com on behalf of chat users.
// Creates and deletes are mutations, so nothing here touches the result
// cache; transient GitHub failures are retried with bounded backoff.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"gocinder.io/cinder/internal/retrier"
)

const (
	defaultAPIBase = "https://api.github.com"
	acceptHeader   = "application/vnd.github+json"
	userAgent      = "cinder-gist"
)

// Option configures a Client.
type Option func(*Client)

// WithAPIBase overrides the API base URL. Intended for tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimSuffix(base, "/") }
}

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// File is one file inside a gist.
type File struct {
	Content string `json:"content"`
}

// Gist is the subset of GitHub's gist representation the cogs use.
type Gist struct {
	ID          string          `json:"id"`
	HTMLURL     string          `json:"html_url"`
	Description string          `json:"description"`
	Public      bool            `json:"public"`
	Files       map[string]File `json:"files"`
}

// Client calls the GitHub Gists API.
type Client struct {
	apiBase    string
	httpClient *http.Client
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// New creates a Client authenticated with a GitHub token. The token needs
// the gist scope.
func New(ctx context.Context, token string, opts ...Option) (*Client, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, source)
	httpClient.Timeout = 15 * time.Second

	r, err := retrier.NewRetrier(3, time.Second, 10*time.Second, 2.0, 0.5, retrier.ExponentialBackoff, nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiBase:    defaultAPIBase,
		httpClient: httpClient,
		retrier:    r,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create uploads files as a new gist and returns its representation.
func (c *Client) Create(ctx context.Context, description string, public bool, files map[string]string) (*Gist, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	payload := struct {
		Description string          `json:"description"`
		Public      bool            `json:"public"`
		Files       map[string]File `json:"files"`
	}{
		Description: description,
		Public:      public,
		Files:       make(map[string]File, len(files)),
	}
	for name, content := range files {
		payload.Files[name] = File{Content: content}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var gist Gist
	err = c.retrier.Run(ctx, func() error {
		return c.request(ctx, http.MethodPost, "/gists", body, &gist)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("uploaded gist", zap.String("id", gist.ID), zap.Int("files", len(files)))
	return &gist, nil
}

// Delete removes a gist by ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.retrier.Run(ctx, func() error {
		return c.request(ctx, http.MethodDelete, "/gists/"+id, nil, nil)
	})
}

// request performs one API call, decoding the response into dst when it is
// non-nil.
func (c *Client) request(ctx context.Context, method, path string, body []byte, dst any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if dst == nil {
			return nil
		}
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("failed to decode gist response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
}
