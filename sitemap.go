package dockb

import (
	"context"
	"strings"
)

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs returns the page URLs listed in the sitemaps of the site
	// at siteURL. Sitemaps are located through robots.txt, falling back to
	// /sitemap.xml, and sitemap indexes are followed. URLs outside scope are
	// dropped; a nil scope keeps every URL. A site without sitemaps yields
	// an empty slice.
	DiscoverURLs(ctx context.Context, siteURL string, scope *Scope) ([]string, error)

	// ReadSitemap returns the URLs listed in the sitemap at sitemapURL,
	// following sitemap indexes.
	ReadSitemap(ctx context.Context, sitemapURL string) ([]string, error)
}

// IsSitemapURL reports whether rawURL points at a sitemap document
// rather than a site.
func IsSitemapURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	return strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".xml.gz")
}
