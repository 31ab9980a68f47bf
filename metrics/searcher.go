package metrics

import (
	"context"
	"time"

	"github.com/fwojciec/dockb"
)

var _ dockb.Searcher = (*Searcher)(nil)

// Searcher counts and times searches of the wrapped searcher.
type Searcher struct {
	next    dockb.Searcher
	metrics *Metrics
}

// NewSearcher wraps next.
func (m *Metrics) NewSearcher(next dockb.Searcher) *Searcher {
	return &Searcher{next: next, metrics: m}
}

// Search implements dockb.Searcher.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]*dockb.SearchResult, error) {
	start := time.Now()
	results, err := s.next.Search(ctx, query, topK)
	s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	s.metrics.SearchRequestsTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		s.metrics.SearchResults.Observe(float64(len(results)))
	}
	return results, err
}
