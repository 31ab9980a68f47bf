package crawl

import (
	"container/heap"
	"strings"
	"sync"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/bloom"
)

// Compile-time interface verification.
var _ dockb.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory breadth-first crawl queue with Bloom filter
// deduplication. Links pop shallowest first, in push order within a depth.
// It is safe for concurrent use by multiple goroutines.
//
// A Bloom false positive makes a never-seen URL look visited, so a page may
// occasionally be missed. Crawls are not exhaustive, so this is accepted.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue *linkHeap
	seq   uint64
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	h := &linkHeap{}
	heap.Init(h)
	return &Frontier{
		seen:  bloom.NewFilter(n, fpRate),
		queue: h,
	}
}

// Push adds a link to the frontier.
// Returns false if the URL has already been seen.
// URLs differing only by fragment are duplicates.
func (f *Frontier) Push(link dockb.CrawlLink) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	link.URL = stripFragment(link.URL)
	if f.seen.TestAndAdd(link.URL) {
		return false
	}

	heap.Push(f.queue, queuedLink{CrawlLink: link, seq: f.seq})
	f.seq++
	return true
}

// Pop returns the shallowest link.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (dockb.CrawlLink, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return dockb.CrawlLink{}, false
	}
	item, _ := heap.Pop(f.queue).(queuedLink)
	return item.CrawlLink, true
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Seen returns true if the URL has been processed or queued.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(stripFragment(rawURL))
}

func stripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i != -1 {
		return u[:i]
	}
	return u
}

type queuedLink struct {
	dockb.CrawlLink
	seq uint64
}

// linkHeap orders links by depth, then by push sequence.
type linkHeap []queuedLink

func (h linkHeap) Len() int { return len(h) }

func (h linkHeap) Less(i, j int) bool {
	if h[i].Depth != h[j].Depth {
		return h[i].Depth < h[j].Depth
	}
	return h[i].seq < h[j].seq
}

func (h linkHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *linkHeap) Push(x any) {
	link, _ := x.(queuedLink)
	*h = append(*h, link)
}

func (h *linkHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
