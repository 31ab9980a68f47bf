package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of dockb.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*dockb.Response, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*dockb.Response, error) {
	return f.FetchFn(ctx, url)
}
