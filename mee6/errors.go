package mee6

import (
	"fmt"
	"net/http"
	"time"
)

// GuildNotFoundError is returned when a guild has no Mee6 leaderboard.
type GuildNotFoundError struct {
	GuildID string
}

func (e *GuildNotFoundError) Error() string {
	return fmt.Sprintf("mee6: no leaderboard for guild %s", e.GuildID)
}

// UserNotFoundError is returned when a user does not appear on the guild's
// leaderboard.
type UserNotFoundError struct {
	GuildID string
	UserID  string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("mee6: user %s not on the leaderboard of guild %s", e.UserID, e.GuildID)
}

// RateLimitedError is returned when the Mee6 API throttles the request.
// RetryAfter is zero when the response carried no Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("mee6: rate limited, retry after %s", e.RetryAfter)
	}
	return "mee6: rate limited"
}

// HTTPError captures an unexpected response from the Mee6 API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("mee6: unexpected status code %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the failure may clear on retry.
func (e *HTTPError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
