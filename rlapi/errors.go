package rlapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the API token is rejected. This is an
	// operator error and is never retried.
	ErrUnauthorized = errors.New("rocket league api: invalid token")
	// ErrIllegalUsername is returned when a player ID contains characters the
	// platform does not allow.
	ErrIllegalUsername = errors.New("rocket league api: username has unallowed characters")
)

// PlayerNotFoundError is returned when no player exists for the requested ID.
type PlayerNotFoundError struct {
	PlayerID string
	Platform Platform
}

func (e *PlayerNotFoundError) Error() string {
	return fmt.Sprintf("rocket league api: player %q not found on platform %s", e.PlayerID, e.Platform)
}

// HTTPError captures an unexpected response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("rocket league api: unexpected status code %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the failure may clear on retry: server-side
// errors and rate limiting do, client errors do not.
func (e *HTTPError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	}
	return false
}
