package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of dockb.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, siteURL string, scope *dockb.Scope) ([]string, error)
	ReadSitemapFn  func(ctx context.Context, sitemapURL string) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, siteURL string, scope *dockb.Scope) ([]string, error) {
	return s.DiscoverURLsFn(ctx, siteURL, scope)
}

func (s *SitemapService) ReadSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	return s.ReadSitemapFn(ctx, sitemapURL)
}
