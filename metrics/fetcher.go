package metrics

import (
	"context"
	"time"

	"github.com/fwojciec/dockb"
)

var _ dockb.Fetcher = (*Fetcher)(nil)

// Fetcher counts and times fetches of the wrapped fetcher.
type Fetcher struct {
	next    dockb.Fetcher
	metrics *Metrics
}

// NewFetcher wraps next.
func (m *Metrics) NewFetcher(next dockb.Fetcher) *Fetcher {
	return &Fetcher{next: next, metrics: m}
}

// Fetch implements dockb.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*dockb.Response, error) {
	start := time.Now()
	resp, err := f.next.Fetch(ctx, url)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	f.metrics.FetchRequestsTotal.WithLabelValues(fetchOutcome(err)).Inc()
	return resp, err
}
