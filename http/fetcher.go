// Package http provides HTTP implementations of dockb.Fetcher and
// dockb.SitemapService for static documentation sites.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/fwojciec/dockb"
)

// DefaultFetchTimeout is the default timeout for a single HTTP request.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxBodyBytes is the largest response body accepted by default.
const DefaultMaxBodyBytes = 10 << 20

// Browser-like headers so documentation sites don't block the crawler.
const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage   = "en-US,en;q=0.5"
)

// Ensure Fetcher implements dockb.Fetcher at compile time.
var _ dockb.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages over HTTP. It does not execute JavaScript.
// Transient failures are retried with backoff.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	userAgent    string
	delays       []time.Duration
	onRetry      func(url string, attempt int, err error)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for each HTTP request.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodyBytes sets the largest accepted response body.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithRetryDelays sets the waits between attempts. An empty slice disables
// retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(f *Fetcher) {
		f.delays = delays
	}
}

// WithRetryHook registers a function called before each retry.
func WithRetryHook(fn func(url string, attempt int, err error)) Option {
	return func(f *Fetcher) {
		f.onRetry = fn
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		userAgent:    DefaultUserAgent,
		delays:       DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the given URL. Failures are returned as *dockb.FetchError,
// except cancellation of ctx which is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*dockb.Response, error) {
	var resp *dockb.Response
	err := retry(ctx, f.delays, func(attempt int, err error) {
		if f.onRetry != nil {
			f.onRetry(url, attempt, err)
		}
	}, func() error {
		var err error
		resp, err = f.fetchOnce(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*dockb.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &dockb.FetchError{Kind: dockb.FetchNetwork, URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &dockb.FetchError{Kind: dockb.FetchHTTPStatus, URL: url, StatusCode: resp.StatusCode}
	}
	if f.maxBodyBytes > 0 && resp.ContentLength > f.maxBodyBytes {
		return nil, &dockb.FetchError{Kind: dockb.FetchTooLarge, URL: url, StatusCode: resp.StatusCode}
	}

	var body []byte
	if f.maxBodyBytes > 0 {
		body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	} else {
		body, err = io.ReadAll(resp.Body)
	}
	if err != nil {
		return nil, classify(ctx, url, err)
	}
	if f.maxBodyBytes > 0 && int64(len(body)) > f.maxBodyBytes {
		return nil, &dockb.FetchError{Kind: dockb.FetchTooLarge, URL: url, StatusCode: resp.StatusCode}
	}

	return &dockb.Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// classify turns a transport error into a FetchError.
func classify(ctx context.Context, url string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &dockb.FetchError{Kind: dockb.FetchTimeout, URL: url, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &dockb.FetchError{Kind: dockb.FetchConnectionRefused, URL: url, Err: err}
	}
	return &dockb.FetchError{Kind: dockb.FetchNetwork, URL: url, Err: err}
}
