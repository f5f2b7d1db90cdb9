package llm

import (
	"fmt"
	"strings"
)

// AuthError is returned before any network activity when no API key is set.
type AuthError struct{}

func (*AuthError) Error() string { return "llm: API key is not set" }

// APIError reports a non-success HTTP status from the endpoint.
type APIError struct {
	Status     int
	StatusText string
	Detail     string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API Error: %d %s.", e.Status, e.StatusText)
	if e.Detail != "" {
		msg += " " + e.Detail
	}
	return strings.TrimSpace(msg)
}

// NetworkError reports a transport-level failure: name resolution, refused
// or reset connections, timeouts before a response arrived.
type NetworkError struct {
	Detail string
	Err    error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Detail
}

func (e *NetworkError) Unwrap() error { return e.Err }
