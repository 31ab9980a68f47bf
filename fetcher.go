package dockb

import (
	"context"
	"fmt"
)

// Response is the result of a successful fetch.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher retrieves page content over HTTP(S).
// Implementations do not execute JavaScript.
type Fetcher interface {
	// Fetch retrieves the URL, retrying transient failures.
	// Failures are returned as *FetchError.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// FetchErrorKind classifies a fetch failure.
type FetchErrorKind string

// FetchErrorKind values.
const (
	FetchTimeout           FetchErrorKind = "timeout"
	FetchConnectionRefused FetchErrorKind = "connection_refused"
	FetchHTTPStatus        FetchErrorKind = "http_status"
	FetchTooLarge          FetchErrorKind = "too_large"
	FetchNetwork           FetchErrorKind = "network"
)

// FetchError describes why a fetch failed.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchHTTPStatus:
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	case FetchTooLarge:
		return fmt.Sprintf("fetch %s: response too large", e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether retrying the fetch may succeed.
// Timeouts, network resets, 5xx and 429 responses are transient;
// refused connections, other 4xx and oversized bodies are not.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case FetchTimeout, FetchNetwork:
		return true
	case FetchHTTPStatus:
		return e.StatusCode >= 500 || e.StatusCode == 429
	default:
		return false
	}
}
