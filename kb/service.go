// Package kb implements the operations on knowledge bases: indexing pages
// and domains, hybrid search and housekeeping. It wires the crawler, the
// semantic indexer and the ranker to the storage of each knowledge base.
package kb

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/crawl"
	"github.com/fwojciec/dockb/search"
	"github.com/fwojciec/dockb/semantic"
)

// Operation timeouts.
const (
	DefaultIndexTimeout  = 10 * time.Minute
	DefaultSearchTimeout = 30 * time.Second
)

// listPageSize is the number of documents read per query when walking a store.
const listPageSize = 500

var (
	_ dockb.KnowledgeBaseService = (*Service)(nil)
	_ dockb.Retriever            = (*Service)(nil)
)

// Service manages knowledge bases kept in a registry.
//
// Knowledge bases are independent: each has its own crawler, semantic
// indexer and ranker, created on first use and kept until it is deleted.
type Service struct {
	Registry dockb.KnowledgeBaseRegistry

	Sitemaps    dockb.SitemapService
	Fetcher     dockb.Fetcher
	Extractor   dockb.Extractor
	RateLimiter dockb.DomainLimiter
	Planner     dockb.QueryPlanner

	// Embedder is nil when no embedding provider is configured. Knowledge
	// bases then index and search lexically only.
	Embedder dockb.Embedder

	Concurrency   int
	IndexTimeout  time.Duration
	SearchTimeout time.Duration

	Logger   *slog.Logger
	Progress crawl.ProgressFunc

	// WrapSearcher, when set, decorates the searcher of each knowledge base.
	WrapSearcher func(dockb.Searcher) dockb.Searcher

	mu        sync.Mutex
	instances map[string]*instance
}

// instance holds the services of one open knowledge base.
type instance struct {
	storage  *dockb.Storage
	crawler  *crawl.Crawler
	searcher dockb.Searcher

	// semantic is nil when embeddings are disabled.
	semantic *semantic.Indexer

	mu     sync.Mutex
	config dockb.KnowledgeBaseConfig
}

// Config returns the configuration the instance was opened with, plus any
// source URL recorded since.
func (inst *instance) Config() dockb.KnowledgeBaseConfig {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.config
}

// claimSourceURL sets the source URL unless one is already recorded and
// reports whether it did.
func (inst *instance) claimSourceURL(u string) bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.config.SourceURL != "" {
		return false
	}
	inst.config.SourceURL = u
	return true
}

// CreateKnowledgeBase creates an empty knowledge base.
func (s *Service) CreateKnowledgeBase(ctx context.Context, kb *dockb.KnowledgeBase) (*dockb.KnowledgeBase, error) {
	storage, err := s.Registry.CreateKnowledgeBase(ctx, kb)
	if err != nil {
		return nil, err
	}
	return storage.KnowledgeBase, nil
}

// UpdateKnowledgeBase changes the configuration of a knowledge base.
func (s *Service) UpdateKnowledgeBase(ctx context.Context, name string, upd dockb.KnowledgeBaseUpdate) (*dockb.KnowledgeBase, error) {
	kb, err := s.Registry.UpdateKnowledgeBase(ctx, name, upd)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.instances, name)
	s.mu.Unlock()
	return kb, nil
}

// IndexPages fetches and indexes the given pages without following links.
// Stored pages are re-fetched and rewritten only when their content changed,
// or always with ForceRefresh. The knowledge base is created when missing.
func (s *Service) IndexPages(ctx context.Context, name string, urls []string, opts dockb.IndexPagesOptions) (*dockb.IndexReport, error) {
	if len(urls) == 0 {
		return nil, dockb.Errorf(dockb.EINVALID, "at least one URL required")
	}
	for _, u := range urls {
		if _, err := dockb.CanonicalURL(u); err != nil {
			return nil, err
		}
	}
	if err := opts.Metadata.Validate(); err != nil {
		return nil, err
	}

	inst, err := s.instance(ctx, name, true)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout())
	defer cancel()

	return inst.crawler.Crawl(ctx, urls, crawl.Options{
		ForceRefresh: opts.ForceRefresh,
		Revalidate:   true,
		Metadata:     opts.Metadata,
	})
}

// IndexDomain discovers the pages of a domain or sitemap and crawls them.
// The knowledge base is created when missing and remembers target as its
// source.
func (s *Service) IndexDomain(ctx context.Context, name, target string, opts dockb.IndexDomainOptions) (*dockb.IndexReport, error) {
	root, err := dockb.CanonicalURL(target)
	if err != nil {
		return nil, err
	}
	if opts.MaxPages < 0 {
		return nil, dockb.Errorf(dockb.EINVALID, "max pages must not be negative")
	}
	if opts.MaxDepth != nil && *opts.MaxDepth < 0 {
		return nil, dockb.Errorf(dockb.EINVALID, "max depth must not be negative")
	}
	if err := opts.Metadata.Validate(); err != nil {
		return nil, err
	}

	inst, err := s.instance(ctx, name, true)
	if err != nil {
		return nil, err
	}

	prefix := scopePrefix(opts.ScopePrefix, inst.Config().ScopePrefix, root)
	maxPages := opts.MaxPages
	if maxPages == 0 {
		maxPages = crawl.DefaultMaxPages
	}
	maxDepth := crawl.DefaultMaxDepth
	if opts.MaxDepth != nil {
		maxDepth = *opts.MaxDepth
	}

	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout())
	defer cancel()

	seeds, err := inst.crawler.Discover(ctx, root, prefix)
	if err != nil {
		if ctx.Err() != nil {
			return &dockb.IndexReport{Errors: []dockb.PageError{}, Incomplete: true}, nil
		}
		return nil, err
	}
	s.logger().Info("crawl started", "kb", name, "url", root, "seeds", len(seeds), "scope", prefix)

	report, err := inst.crawler.Crawl(ctx, seeds, crawl.Options{
		MaxPages:     maxPages,
		MaxDepth:     maxDepth,
		ForceRefresh: opts.ForceRefresh,
		ScopePrefix:  prefix,
		Metadata:     opts.Metadata,
	})
	if err != nil {
		return report, err
	}

	if inst.claimSourceURL(root) {
		if _, err := s.Registry.UpdateKnowledgeBase(context.WithoutCancel(ctx), name, dockb.KnowledgeBaseUpdate{SourceURL: &root}); err != nil {
			s.logger().Warn("source URL not recorded", "kb", name, "error", err)
		}
	}
	return report, nil
}

// scopePrefix picks the first non-empty prefix: the requested one, the
// configured one, then the path of a non-sitemap target.
func scopePrefix(requested, configured, target string) string {
	if requested != "" {
		return requested
	}
	if configured != "" {
		return configured
	}
	if dockb.IsSitemapURL(target) {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, "/")
}

// Search runs a hybrid search against a knowledge base.
// Returns ENOTFOUND for an unknown knowledge base.
func (s *Service) Search(ctx context.Context, name, query string, topK int) ([]*dockb.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, dockb.Errorf(dockb.EINVALID, "query required")
	}
	if topK < 0 {
		return nil, dockb.Errorf(dockb.EINVALID, "topK must not be negative")
	}

	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout())
	defer cancel()

	return inst.searcher.Search(ctx, query, topK)
}

// Retrieve implements dockb.Retriever.
func (s *Service) Retrieve(ctx context.Context, name, query string, limit int) ([]*dockb.Document, error) {
	results, err := s.Search(ctx, name, query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []*dockb.Document{}, nil
	}

	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.DocumentID
	}
	docs, err := inst.storage.Documents.FindDocuments(ctx, dockb.DocumentFilter{IDs: ids})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*dockb.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	ordered := make([]*dockb.Document, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
		}
	}
	return ordered, nil
}

// ListDocuments returns the summaries of the documents matching filter,
// most recently indexed first.
func (s *Service) ListDocuments(ctx context.Context, name string, filter dockb.DocumentFilter) ([]*dockb.DocumentSummary, error) {
	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return nil, err
	}

	docs, err := inst.storage.Documents.FindDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]*dockb.DocumentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = d.Summary()
	}
	return summaries, nil
}

// GetDocument returns a stored document by URL.
func (s *Service) GetDocument(ctx context.Context, name, rawURL string) (*dockb.Document, error) {
	id, err := dockb.CanonicalURL(rawURL)
	if err != nil {
		return nil, err
	}
	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return nil, err
	}
	return inst.storage.Documents.FindDocumentByID(ctx, id)
}

// RemoveDocuments deletes documents by URL together with their lexicon rows
// and vectors, and returns how many existed. A dockb.RemoveAllDocuments entry
// empties the knowledge base.
func (s *Service) RemoveDocuments(ctx context.Context, name string, urls []string) (int, error) {
	if len(urls) == 0 {
		return 0, dockb.Errorf(dockb.EINVALID, "at least one URL required")
	}

	ids := make([]string, 0, len(urls))
	all := false
	for _, u := range urls {
		if u == dockb.RemoveAllDocuments {
			all = true
			continue
		}
		id, err := dockb.CanonicalURL(u)
		if err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}

	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return 0, err
	}

	if all {
		n, err := inst.storage.Documents.DeleteAllDocuments(ctx)
		if err != nil {
			return 0, err
		}
		if inst.semantic != nil {
			inst.semantic.Reset()
		}
		return n, nil
	}

	n := 0
	for _, id := range ids {
		if err := inst.storage.Documents.DeleteDocument(ctx, id); dockb.ErrorCode(err) == dockb.ENOTFOUND {
			continue
		} else if err != nil {
			return n, err
		}
		if inst.semantic != nil {
			inst.semantic.Forget(id)
		}
		n++
	}
	return n, nil
}

// DeleteKnowledgeBase removes a knowledge base and everything it owns.
func (s *Service) DeleteKnowledgeBase(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.instances, name)
	s.mu.Unlock()
	return s.Registry.DeleteKnowledgeBase(ctx, name)
}

// ListKnowledgeBases returns a summary of every knowledge base, sorted by name.
func (s *Service) ListKnowledgeBases(ctx context.Context) ([]*dockb.KnowledgeBaseSummary, error) {
	kbs, err := s.Registry.FindKnowledgeBases(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]*dockb.KnowledgeBaseSummary, 0, len(kbs))
	for _, kb := range kbs {
		storage, err := s.Registry.OpenKnowledgeBase(ctx, kb.Name)
		if err != nil {
			return nil, err
		}
		stats, err := storage.Documents.Stats(ctx)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &dockb.KnowledgeBaseSummary{
			Name:              kb.Name,
			Description:       kb.Config.Description,
			SourceURL:         kb.Config.SourceURL,
			EmbeddingsEnabled: kb.Config.EmbeddingsEnabled,
			DocumentCount:     stats.DocumentCount,
			VectorCount:       stats.VectorCount,
			TotalChars:        stats.TotalChars,
			CreatedAt:         kb.CreatedAt,
			UpdatedAt:         kb.UpdatedAt,
			LastIndexedAt:     stats.LastIndexedAt,
		})
	}
	return summaries, nil
}

// Refresh re-fetches every stored document and rewrites those whose content
// changed. A dry run only lists the documents.
func (s *Service) Refresh(ctx context.Context, name string, dryRun bool) (*dockb.RefreshResult, error) {
	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return nil, err
	}

	urls, err := documentIDs(ctx, inst.storage.Documents)
	if err != nil {
		return nil, err
	}
	result := &dockb.RefreshResult{URLs: urls}
	if dryRun || len(urls) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout())
	defer cancel()

	result.Report, err = inst.crawler.Crawl(ctx, urls, crawl.Options{Revalidate: true})
	return result, err
}

// BackfillVectors embeds the documents that lack a vector from the current
// embedding provider and returns how many were embedded.
func (s *Service) BackfillVectors(ctx context.Context, name string) (int, error) {
	inst, err := s.instance(ctx, name, false)
	if err != nil {
		return 0, err
	}
	if inst.semantic == nil {
		return 0, dockb.Errorf(dockb.EINVALID, "embeddings are disabled for %q", name)
	}

	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout())
	defer cancel()

	return inst.semantic.Backfill(ctx, inst.storage.Documents)
}

// documentIDs returns the IDs of every stored document.
func documentIDs(ctx context.Context, docs dockb.DocumentService) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += listPageSize {
		page, err := docs.FindDocuments(ctx, dockb.DocumentFilter{Offset: offset, Limit: listPageSize})
		if err != nil {
			return nil, err
		}
		for _, d := range page {
			ids = append(ids, d.ID)
		}
		if len(page) < listPageSize {
			return ids, nil
		}
	}
}

// instance returns the services of a knowledge base, opening it on first
// use. With create set a missing knowledge base is created with the
// default configuration.
func (s *Service) instance(ctx context.Context, name string, create bool) (*instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst, ok := s.instances[name]; ok {
		return inst, nil
	}

	storage, err := s.Registry.OpenKnowledgeBase(ctx, name)
	if create && dockb.ErrorCode(err) == dockb.ENOTFOUND {
		storage, err = s.Registry.CreateKnowledgeBase(ctx, &dockb.KnowledgeBase{
			Name:   name,
			Config: dockb.DefaultKnowledgeBaseConfig(),
		})
		if err == nil {
			s.logger().Info("knowledge base created", "kb", name)
		}
	}
	if err != nil {
		return nil, err
	}

	inst := s.newInstance(storage)
	if s.instances == nil {
		s.instances = make(map[string]*instance)
	}
	s.instances[name] = inst
	return inst, nil
}

func (s *Service) newInstance(storage *dockb.Storage) *instance {
	cfg := storage.KnowledgeBase.Config
	logger := s.logger().With("kb", storage.KnowledgeBase.Name)

	inst := &instance{storage: storage, config: cfg}
	ranker := &search.Ranker{
		Planner:   s.Planner,
		Lexical:   storage.Lexical,
		Documents: storage.Documents,
	}
	if ranker.Planner == nil {
		ranker.Planner = search.NewPlanner(nil)
	}

	crawler := &crawl.Crawler{
		Sitemaps:    s.Sitemaps,
		Fetcher:     s.Fetcher,
		Extractor:   s.Extractor,
		Documents:   storage.Documents,
		RateLimiter: s.RateLimiter,
		Concurrency: s.Concurrency,
		Logger:      logger,
		Progress:    s.Progress,
	}

	if s.Embedder != nil && cfg.EmbeddingsEnabled {
		inst.semantic = semantic.NewIndexer(s.Embedder, storage.Vectors)
		inst.semantic.Threshold = cfg.SimilarityThreshold
		inst.semantic.Logger = logger
		crawler.Vectorizer = inst.semantic
		ranker.Semantic = inst.semantic
	}

	inst.crawler = crawler
	inst.searcher = ranker
	if s.WrapSearcher != nil {
		inst.searcher = s.WrapSearcher(ranker)
	}
	return inst
}

func (s *Service) indexTimeout() time.Duration {
	if s.IndexTimeout > 0 {
		return s.IndexTimeout
	}
	return DefaultIndexTimeout
}

func (s *Service) searchTimeout() time.Duration {
	if s.SearchTimeout > 0 {
		return s.SearchTimeout
	}
	return DefaultSearchTimeout
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}
