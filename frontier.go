package dockb

import "context"

// CrawlLink is a URL waiting in the crawl frontier.
type CrawlLink struct {
	URL string

	// Depth is the number of link hops from a seed. Seeds have depth 0.
	Depth int
}

// URLFrontier manages a breadth-first crawl queue with deduplication.
type URLFrontier interface {
	// Push adds a link to the frontier.
	// Returns false if the URL has already been seen.
	Push(link CrawlLink) bool

	// Pop returns the shallowest link, in insertion order within a depth.
	// Returns false if the frontier is empty.
	Pop() (CrawlLink, bool)

	// Len returns the number of URLs in the queue.
	Len() int

	// Seen returns true if the URL has been processed or queued.
	Seen(url string) bool
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
