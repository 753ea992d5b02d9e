package app

import (
	"errors"

	"github.com/sadopc/focusplan/internal/ai"
)

// ErrInvalidInput is wrapped by controller errors caused by bad arguments.
var ErrInvalidInput = errors.New("invalid input")

// ErrorKind groups failures by where they came from.
type ErrorKind int

const (
	NoError ErrorKind = iota
	ConfigurationMissing
	InvalidInput
	TransportError
	MalformedResponse
	StoreError
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case ConfigurationMissing:
		return "configuration missing"
	case InvalidInput:
		return "invalid input"
	case TransportError:
		return "transport error"
	case MalformedResponse:
		return "malformed response"
	case StoreError:
		return "store error"
	}
	return "unknown"
}

// Classify reports the ErrorKind of err. Anything not recognised as an AI
// or input failure is treated as a store failure.
func Classify(err error) ErrorKind {
	var apiErr *ai.APIError
	var malformed *ai.MalformedResponseError
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ai.ErrNotConfigured):
		return ConfigurationMissing
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ai.ErrInvalidRequest):
		return InvalidInput
	case errors.As(err, &apiErr):
		return TransportError
	case errors.As(err, &malformed):
		return MalformedResponse
	}
	return StoreError
}

const notConfiguredMessage = "API not configured. Please set up API configuration first."

// userMessage is the text shown for err in an Error state.
func userMessage(err error) string {
	if errors.Is(err, ai.ErrNotConfigured) {
		return notConfiguredMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
