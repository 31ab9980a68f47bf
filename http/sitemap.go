package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/dockb"
)

var _ dockb.SitemapService = (*SitemapService)(nil)

const (
	// maxSitemapBytes bounds a single sitemap document, after decompression.
	maxSitemapBytes = 50 << 20

	// maxSitemapFiles bounds the sitemaps read for one site, indexes included.
	maxSitemapFiles = 100
)

// SitemapService reads sitemaps over HTTP. Gzipped sitemaps are supported.
type SitemapService struct {
	client *http.Client

	// UserAgent is sent with every request when set.
	UserAgent string
}

// NewSitemapService returns a SitemapService using client, or
// http.DefaultClient when client is nil.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the page URLs listed in the sitemaps of siteURL.
// Sitemaps that cannot be read are skipped once at least one is found
// through robots.txt; a missing /sitemap.xml is not an error.
func (s *SitemapService) DiscoverURLs(ctx context.Context, siteURL string, scope *dockb.Scope) ([]string, error) {
	site, err := url.Parse(siteURL)
	if err != nil || site.Host == "" {
		return nil, dockb.Errorf(dockb.EINVALID, "invalid site URL %q", siteURL)
	}
	origin := &url.URL{Scheme: site.Scheme, Host: site.Host}

	roots, err := s.robotsSitemaps(ctx, origin.JoinPath("robots.txt").String())
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	optional := len(roots) == 0
	if optional {
		roots = []string{origin.JoinPath("sitemap.xml").String()}
	}

	w := newSitemapWalk(s)
	for _, root := range roots {
		if err := w.walk(ctx, root); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if optional {
				break
			}
			return nil, err
		}
	}

	urls := make([]string, 0, len(w.urls))
	for _, u := range w.urls {
		if scope.Contains(u) {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// ReadSitemap returns the URLs listed in the sitemap at sitemapURL.
// Sitemap indexes are followed. Duplicates are dropped.
func (s *SitemapService) ReadSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	w := newSitemapWalk(s)
	if err := w.walk(ctx, sitemapURL); err != nil {
		return nil, err
	}
	if w.urls == nil {
		return []string{}, nil
	}
	return w.urls, nil
}

// robotsSitemaps returns the Sitemap directives of a robots.txt file.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(io.LimitReader(body, maxSitemapBytes))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			sitemaps = append(sitemaps, v)
		}
	}
	return sitemaps, scanner.Err()
}

// get requests targetURL and returns the body of a 200 response,
// decompressed when gzipped.
func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	if !isGzip(targetURL, resp.Header.Get("Content-Type")) {
		return resp.Body, nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("reading gzipped sitemap %s: %w", targetURL, err)
	}
	return gzipBody{Reader: zr, body: resp.Body}, nil
}

// isGzip reports whether a response holds a gzip file. Transfer compression
// is undone by net/http and is not covered here.
func isGzip(targetURL, contentType string) bool {
	if u, err := url.Parse(targetURL); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".gz") {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "application/gzip") || strings.HasPrefix(ct, "application/x-gzip")
}

type gzipBody struct {
	*gzip.Reader
	body io.Closer
}

func (b gzipBody) Close() error {
	_ = b.Reader.Close()
	return b.body.Close()
}

// sitemapWalk collects page URLs from a tree of sitemaps, reading each
// sitemap once.
type sitemapWalk struct {
	svc   *SitemapService
	read  map[string]bool
	seen  map[string]bool
	files int
	urls  []string
}

func newSitemapWalk(svc *SitemapService) *sitemapWalk {
	return &sitemapWalk{svc: svc, read: make(map[string]bool), seen: make(map[string]bool)}
}

// walk reads the sitemap at root and every sitemap it indexes, breadth
// first. Nested sitemaps that fail are skipped; root failing is an error.
func (w *sitemapWalk) walk(ctx context.Context, root string) error {
	queue := []string{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := queue[0]
		queue = queue[1:]
		if w.read[next] {
			continue
		}
		if w.files >= maxSitemapFiles {
			break
		}
		w.read[next] = true
		w.files++

		children, err := w.readOne(ctx, next)
		if err != nil {
			if next == root {
				return err
			}
			continue
		}
		queue = append(queue, children...)
	}
	return nil
}

// readOne parses a single sitemap. Page URLs are added to w.urls and the
// sitemaps listed by an index are returned.
func (w *sitemapWalk) readOne(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := w.svc.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(io.LimitReader(body, maxSitemapBytes)); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing sitemap %s: empty document", sitemapURL)
	}

	switch root.Tag {
	case "sitemapindex":
		return locs(root, "sitemap"), nil
	case "urlset":
		for _, u := range locs(root, "url") {
			if !w.seen[u] {
				w.seen[u] = true
				w.urls = append(w.urls, u)
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("parsing sitemap %s: unexpected root element <%s>", sitemapURL, root.Tag)
	}
}

// locs returns the non-empty <loc> values of the children of root
// named entry.
func locs(root *etree.Element, entry string) []string {
	var out []string
	for _, el := range root.SelectElements(entry) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}
