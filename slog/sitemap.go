package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/dockb"
)

var _ dockb.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService logs sitemap lookups at info level.
type LoggingSitemapService struct {
	next   dockb.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService wraps next.
func NewLoggingSitemapService(next dockb.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, siteURL string, scope *dockb.Scope) (urls []string, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", siteURL, "count", len(urls), "duration", time.Since(begin)}
		if scope != nil && scope.PathPrefix != "" {
			attrs = append(attrs, "scope", scope.PathPrefix)
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		s.logger.Info("sitemap discovery", attrs...)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, siteURL, scope)
}

func (s *LoggingSitemapService) ReadSitemap(ctx context.Context, sitemapURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", sitemapURL, "count", len(urls), "duration", time.Since(begin)}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		s.logger.Info("sitemap read", attrs...)
	}(time.Now())
	return s.next.ReadSitemap(ctx, sitemapURL)
}
