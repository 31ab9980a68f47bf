package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.QueryPlanner = (*QueryPlanner)(nil)

// QueryPlanner is a mock implementation of dockb.QueryPlanner.
type QueryPlanner struct {
	ExpandFn func(query string) []dockb.SubQuery
}

func (p *QueryPlanner) Expand(query string) []dockb.SubQuery {
	return p.ExpandFn(query)
}

var _ dockb.Searcher = (*Searcher)(nil)

// Searcher is a mock implementation of dockb.Searcher.
type Searcher struct {
	SearchFn func(ctx context.Context, query string, topK int) ([]*dockb.SearchResult, error)
}

func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]*dockb.SearchResult, error) {
	return s.SearchFn(ctx, query, topK)
}
