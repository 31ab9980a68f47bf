package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fwojciec/dockb"
)

// walk is the state of one Crawl call. Everything except process runs on
// the coordinator goroutine.
type walk struct {
	c        *Crawler
	opts     Options
	scope    *dockb.Scope
	frontier *Frontier
	report   *dockb.IndexReport

	completed int
}

// pageResult is what a worker reports for one link.
type pageResult struct {
	link    dockb.CrawlLink
	outcome dockb.PutOutcome
	links   []string
	err     error
}

// run dispatches frontier links to a bounded worker pool until the frontier
// drains, the page budget is spent, ctx expires or storage fails.
func (w *walk) run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	concurrency := w.c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	workCh := make(chan dockb.CrawlLink)
	resultCh := make(chan pageResult)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range workCh {
				resultCh <- w.process(ctx, link)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var (
		fatal      error
		dispatched int
		pending    int
		next       dockb.CrawlLink
		hasNext    bool
	)

loop:
	for {
		if !hasNext && !w.budgetSpent(dispatched) {
			next, hasNext, fatal = w.nextLink(ctx)
			if fatal != nil {
				break loop
			}
		}
		if !hasNext && pending == 0 {
			break loop
		}

		var work chan<- dockb.CrawlLink
		if hasNext {
			work = workCh
		}

		select {
		case <-ctx.Done():
			break loop
		case work <- next:
			dispatched++
			pending++
			hasNext = false
		case res := <-resultCh:
			pending--
			if fatal = w.handle(ctx, res); fatal != nil {
				break loop
			}
		}
	}

	cancel()
	close(workCh)
	for res := range resultCh {
		if err := w.handle(ctx, res); err != nil && fatal == nil {
			fatal = err
		}
	}

	if fatal == nil && parent.Err() != nil {
		w.report.Incomplete = true
	}
	return fatal
}

func (w *walk) budgetSpent(dispatched int) bool {
	return w.opts.MaxPages > 0 && dispatched >= w.opts.MaxPages
}

// nextLink pops the next link that needs fetching. Stored pages are skipped
// without fetching unless the crawl refreshes or revalidates them; their
// stored links still feed the frontier.
func (w *walk) nextLink(ctx context.Context) (dockb.CrawlLink, bool, error) {
	for {
		link, ok := w.frontier.Pop()
		if !ok {
			return dockb.CrawlLink{}, false, nil
		}
		if w.opts.ForceRefresh || w.opts.Revalidate {
			return link, true, nil
		}

		doc, err := w.c.Documents.FindDocumentByID(ctx, link.URL)
		switch {
		case dockb.ErrorCode(err) == dockb.ENOTFOUND:
			return link, true, nil
		case err != nil:
			if ctx.Err() != nil {
				return dockb.CrawlLink{}, false, nil
			}
			return dockb.CrawlLink{}, false, err
		}

		w.c.logger().Debug("skipping stored page", "url", link.URL)
		w.report.PagesSkipped++
		w.enqueue(link, doc.Links)
		w.notify(ProgressEvent{Type: ProgressSkipped, URL: link.URL})
	}
}

// process runs on a worker goroutine. Concurrent crawls of the same
// knowledge base with the same options share the indexing of a document in
// flight. A crawl that joined a call canceled by its first caller indexes
// the document again under its own context.
func (w *walk) process(ctx context.Context, link dockb.CrawlLink) pageResult {
	key := inflightKey(link.URL, w.opts)
	index := func() (any, error) {
		return w.c.index(ctx, link, w.opts)
	}
	v, err, shared := w.c.inflight.Do(key, index)
	if shared && ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		v, err, _ = w.c.inflight.Do(key, index)
	}
	if err != nil {
		return pageResult{link: link, err: err}
	}
	res, _ := v.(*indexed)
	return pageResult{link: link, outcome: res.outcome, links: res.links}
}

// handle records a worker result and enqueues its links.
// It returns an error only for storage failures.
func (w *walk) handle(ctx context.Context, res pageResult) error {
	if res.err != nil {
		var serr *storageError
		if errors.As(res.err, &serr) {
			w.report.AddError(res.link.URL, serr.err)
			return serr.err
		}
		if ctx.Err() != nil && (errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded)) {
			return nil
		}
		w.c.logger().Info("page not indexed", "url", res.link.URL, "error", res.err)
		w.report.AddError(res.link.URL, res.err)
		w.notify(ProgressEvent{Type: ProgressFailed, URL: res.link.URL, Error: res.err})
		return nil
	}

	if res.outcome == dockb.PutUnchanged {
		w.report.PagesSkipped++
		w.notify(ProgressEvent{Type: ProgressSkipped, URL: res.link.URL, Outcome: res.outcome})
	} else {
		w.report.PagesIndexed++
		w.notify(ProgressEvent{Type: ProgressIndexed, URL: res.link.URL, Outcome: res.outcome})
	}
	w.enqueue(res.link, res.links)
	return nil
}

// enqueue pushes the in-scope links of a page at the next depth.
func (w *walk) enqueue(from dockb.CrawlLink, links []string) {
	if from.Depth >= w.opts.MaxDepth {
		return
	}
	for _, raw := range links {
		u, err := dockb.CanonicalURL(raw)
		if err != nil || !w.scope.Contains(u) {
			continue
		}
		w.frontier.Push(dockb.CrawlLink{URL: u, Depth: from.Depth + 1})
	}
}

func (w *walk) notify(ev ProgressEvent) {
	w.completed++
	if w.c.Progress == nil {
		return
	}
	ev.Completed = w.completed
	ev.Queued = w.frontier.Len()
	w.c.Progress(ev)
}

// inflightKey identifies an indexing call by URL and the options that
// change what gets written.
func inflightKey(url string, opts Options) string {
	return fmt.Sprintf("%s\x00%t\x00%v", url, opts.ForceRefresh, opts.Metadata)
}
