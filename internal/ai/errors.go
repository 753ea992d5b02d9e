package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned before any network I/O when the provider
	// is not configured or has no API key.
	ErrNotConfigured = errors.New("api not configured")

	ErrInvalidRequest = errors.New("invalid decomposition request")
)

// APIError is a failed exchange with the provider. StatusCode is zero when no
// response was received.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("API request failed: %s", e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// MalformedResponseError means the reply did not have the expected shape.
// No part of such a reply is used.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
