package gist

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the GitHub token is missing scopes or
	// rejected. This is an operator error and is never retried.
	ErrUnauthorized = errors.New("gist: github token rejected")
	// ErrNotFound is returned when the requested gist does not exist.
	ErrNotFound = errors.New("gist: not found")
	// ErrNoFiles is returned when a gist is created without any files.
	ErrNoFiles = errors.New("gist: at least one file is required")
)

// HTTPError captures an unexpected response from the GitHub API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gist: unexpected status code %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether the failure may clear on retry.
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
