// Package crawl discovers, fetches and indexes documentation pages into the
// document store of one knowledge base.
package crawl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/fwojciec/dockb"
	"golang.org/x/sync/singleflight"
)

// Crawl defaults.
const (
	DefaultConcurrency = 4
	DefaultMaxDepth    = 2
	DefaultMaxPages    = 100
)

// Frontier sizing for one crawl.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.001
)

// Vectorizer computes document vectors and keeps an in-memory search graph
// in step with what was stored. semantic.Indexer implements it.
type Vectorizer interface {
	Vectorize(ctx context.Context, doc *dockb.Document) (*dockb.Vector, error)
	Track(v *dockb.Vector)
	Forget(id string)
}

// Crawler indexes pages into one knowledge base.
// A Crawler must not be copied after first use.
type Crawler struct {
	Sitemaps    dockb.SitemapService
	Fetcher     dockb.Fetcher
	Extractor   dockb.Extractor
	Documents   dockb.DocumentService
	RateLimiter dockb.DomainLimiter

	// Vectorizer is nil when embeddings are disabled.
	Vectorizer Vectorizer

	Concurrency int
	Logger      *slog.Logger
	Progress    ProgressFunc

	// inflight holds one indexing call per document ID at a time.
	inflight singleflight.Group
}

// Options controls a crawl.
type Options struct {
	// MaxPages bounds the number of pages fetched. Zero means no bound.
	MaxPages int

	// MaxDepth is the number of link hops followed from the seeds.
	// Zero indexes the seeds only.
	MaxDepth int

	// ForceRefresh re-fetches stored pages and rewrites them even when
	// their content is unchanged.
	ForceRefresh bool

	// Revalidate re-fetches stored pages but only rewrites changed ones.
	Revalidate bool

	// ScopePrefix restricts followed links to paths under it.
	ScopePrefix string

	Metadata dockb.DocumentMetadata
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressIndexed ProgressType = iota
	ProgressSkipped
	ProgressFailed
)

// ProgressEvent reports the outcome of one page.
type ProgressEvent struct {
	Type      ProgressType
	URL       string
	Outcome   dockb.PutOutcome
	Completed int
	Queued    int
	Error     error
}

// ProgressFunc is a callback for reporting crawl progress.
// It is called from a single goroutine.
type ProgressFunc func(event ProgressEvent)

// storageError marks failures of the document store, which end a crawl.
type storageError struct{ err error }

func (e *storageError) Error() string { return e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

// indexed is the shared outcome of indexing one page.
type indexed struct {
	outcome dockb.PutOutcome
	links   []string
}

// Crawl indexes seeds and, up to opts.MaxDepth hops, the in-scope pages
// they link to. Scope is the hosts of the seeds and opts.ScopePrefix.
//
// Per-page failures are recorded in the report. A storage failure ends the
// crawl and is returned together with the partial report. When ctx expires
// the partial report is returned with Incomplete set and no error.
func (c *Crawler) Crawl(ctx context.Context, seeds []string, opts Options) (*dockb.IndexReport, error) {
	if len(seeds) == 0 {
		return nil, dockb.Errorf(dockb.EINVALID, "at least one URL required")
	}
	if err := opts.Metadata.Validate(); err != nil {
		return nil, err
	}

	canonical := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		u, err := dockb.CanonicalURL(seed)
		if err != nil {
			return nil, err
		}
		canonical = append(canonical, u)
	}

	w := &walk{
		c:        c,
		opts:     opts,
		scope:    dockb.NewScope(canonical, opts.ScopePrefix),
		frontier: NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate),
		report:   &dockb.IndexReport{Errors: []dockb.PageError{}},
	}
	for _, u := range canonical {
		w.frontier.Push(dockb.CrawlLink{URL: u})
	}

	err := w.run(ctx)
	return w.report, err
}

// Discover returns the seed URLs for indexing a domain. A target ending in
// .xml is read as a sitemap. Otherwise the sitemaps of the domain are used
// and the target itself is the only seed when none are found. Seeds are
// canonical, on the host of target and under scopePrefix.
func (c *Crawler) Discover(ctx context.Context, target, scopePrefix string) ([]string, error) {
	root, err := dockb.CanonicalURL(target)
	if err != nil {
		return nil, err
	}
	isSitemap := dockb.IsSitemapURL(root)

	scope := dockb.NewScope([]string{root}, scopePrefix)

	var urls []string
	switch {
	case isSitemap:
		urls, err = c.Sitemaps.ReadSitemap(ctx, root)
		if err != nil {
			return nil, err
		}
	case c.Sitemaps != nil:
		urls, err = c.Sitemaps.DiscoverURLs(ctx, root, scope)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger().Warn("sitemap discovery failed", "url", root, "error", err)
			urls = nil
		}
	}

	seen := make(map[string]bool, len(urls))
	seeds := make([]string, 0, len(urls))
	for _, raw := range urls {
		u, err := dockb.CanonicalURL(raw)
		if err != nil || seen[u] || !scope.Contains(u) {
			continue
		}
		seen[u] = true
		seeds = append(seeds, u)
	}
	if len(seeds) > 0 {
		return seeds, nil
	}
	if isSitemap {
		return nil, dockb.Errorf(dockb.ENOTFOUND, "sitemap %s lists no pages in scope", root)
	}

	if !scope.Contains(root) {
		u, _ := url.Parse(root)
		u.Path = "/" + strings.Trim(scopePrefix, "/")
		u.RawQuery = ""
		return []string{u.String()}, nil
	}
	return []string{root}, nil
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// index fetches, extracts, embeds and stores one page.
func (c *Crawler) index(ctx context.Context, link dockb.CrawlLink, opts Options) (*indexed, error) {
	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, dockb.Domain(link.URL)); err != nil {
			return nil, err
		}
	}

	resp, err := c.Fetcher.Fetch(ctx, link.URL)
	if err != nil {
		return nil, err
	}

	parsed, err := c.Extractor.Extract(resp.Body, resp.ContentType, resp.URL)
	if err != nil {
		return nil, err
	}

	doc := newDocument(link, resp, parsed, opts.Metadata)
	result := &indexed{outcome: dockb.PutUnchanged, links: parsed.Links}

	stored, err := c.Documents.ContentHash(ctx, doc.ID)
	if err != nil && dockb.ErrorCode(err) != dockb.ENOTFOUND {
		return nil, c.storageFailure(ctx, err)
	}
	unchanged := err == nil && stored == doc.ContentHash
	if unchanged && !opts.ForceRefresh {
		return result, nil
	}

	// Rewrites without new metadata keep what the document was indexed with.
	if err == nil && opts.Metadata.IsZero() {
		prev, err := c.Documents.FindDocumentByID(ctx, doc.ID)
		if err != nil && dockb.ErrorCode(err) != dockb.ENOTFOUND {
			return nil, c.storageFailure(ctx, err)
		}
		if prev != nil {
			doc = newDocument(link, resp, parsed, prev.Metadata)
		}
	}

	if !unchanged && c.Vectorizer != nil {
		v, err := c.Vectorizer.Vectorize(ctx, doc)
		switch {
		case err == nil:
			doc.Vector = v
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			c.logger().Warn("document stored without vector", "url", doc.ID, "error", err)
		}
	}

	result.outcome, err = c.Documents.PutDocument(ctx, doc, opts.ForceRefresh)
	if err != nil {
		return nil, c.storageFailure(ctx, err)
	}

	if c.Vectorizer != nil && (result.outcome == dockb.PutCreated || result.outcome == dockb.PutUpdated) {
		if doc.Vector != nil {
			c.Vectorizer.Track(doc.Vector)
		} else {
			c.Vectorizer.Forget(doc.ID)
		}
	}
	return result, nil
}

func (c *Crawler) storageFailure(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	return &storageError{err: err}
}

func newDocument(link dockb.CrawlLink, resp *dockb.Response, parsed *dockb.ParsedContent, meta dockb.DocumentMetadata) *dockb.Document {
	doc := &dockb.Document{
		ID:          link.URL,
		SourceURL:   resp.URL,
		Title:       parsed.Title,
		Description: parsed.Description,
		Breadcrumb:  parsed.Breadcrumb,
		Text:        parsed.Text,
		Markdown:    parsed.Markdown,
		Links:       parsed.Links,
		ContentHash: ContentHash(parsed.Text),
		Domain:      dockb.Domain(link.URL),
		Depth:       link.Depth,
		Metadata:    meta.WithDefaults(),
	}
	if doc.SourceURL == "" {
		doc.SourceURL = link.URL
	}
	if meta.Title != "" {
		doc.Title = meta.Title
	}
	if meta.Description != "" {
		doc.Description = meta.Description
	}
	return doc
}
