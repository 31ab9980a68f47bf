package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.KnowledgeBaseRegistry = (*KnowledgeBaseRegistry)(nil)

// KnowledgeBaseRegistry is a mock implementation of dockb.KnowledgeBaseRegistry.
type KnowledgeBaseRegistry struct {
	CreateKnowledgeBaseFn func(ctx context.Context, kb *dockb.KnowledgeBase) (*dockb.Storage, error)
	OpenKnowledgeBaseFn   func(ctx context.Context, name string) (*dockb.Storage, error)
	FindKnowledgeBasesFn  func(ctx context.Context) ([]*dockb.KnowledgeBase, error)
	UpdateKnowledgeBaseFn func(ctx context.Context, name string, upd dockb.KnowledgeBaseUpdate) (*dockb.KnowledgeBase, error)
	DeleteKnowledgeBaseFn func(ctx context.Context, name string) error
}

func (r *KnowledgeBaseRegistry) CreateKnowledgeBase(ctx context.Context, kb *dockb.KnowledgeBase) (*dockb.Storage, error) {
	return r.CreateKnowledgeBaseFn(ctx, kb)
}

func (r *KnowledgeBaseRegistry) OpenKnowledgeBase(ctx context.Context, name string) (*dockb.Storage, error) {
	return r.OpenKnowledgeBaseFn(ctx, name)
}

func (r *KnowledgeBaseRegistry) FindKnowledgeBases(ctx context.Context) ([]*dockb.KnowledgeBase, error) {
	return r.FindKnowledgeBasesFn(ctx)
}

func (r *KnowledgeBaseRegistry) UpdateKnowledgeBase(ctx context.Context, name string, upd dockb.KnowledgeBaseUpdate) (*dockb.KnowledgeBase, error) {
	return r.UpdateKnowledgeBaseFn(ctx, name, upd)
}

func (r *KnowledgeBaseRegistry) DeleteKnowledgeBase(ctx context.Context, name string) error {
	return r.DeleteKnowledgeBaseFn(ctx, name)
}

var _ dockb.KnowledgeBaseService = (*KnowledgeBaseService)(nil)

// KnowledgeBaseService is a mock implementation of dockb.KnowledgeBaseService.
type KnowledgeBaseService struct {
	CreateKnowledgeBaseFn func(ctx context.Context, kb *dockb.KnowledgeBase) (*dockb.KnowledgeBase, error)
	UpdateKnowledgeBaseFn func(ctx context.Context, name string, upd dockb.KnowledgeBaseUpdate) (*dockb.KnowledgeBase, error)
	IndexPagesFn          func(ctx context.Context, name string, urls []string, opts dockb.IndexPagesOptions) (*dockb.IndexReport, error)
	IndexDomainFn         func(ctx context.Context, name, target string, opts dockb.IndexDomainOptions) (*dockb.IndexReport, error)
	SearchFn              func(ctx context.Context, name, query string, topK int) ([]*dockb.SearchResult, error)
	ListDocumentsFn       func(ctx context.Context, name string, filter dockb.DocumentFilter) ([]*dockb.DocumentSummary, error)
	GetDocumentFn         func(ctx context.Context, name, url string) (*dockb.Document, error)
	RemoveDocumentsFn     func(ctx context.Context, name string, urls []string) (int, error)
	DeleteKnowledgeBaseFn func(ctx context.Context, name string) error
	ListKnowledgeBasesFn  func(ctx context.Context) ([]*dockb.KnowledgeBaseSummary, error)
	RefreshFn             func(ctx context.Context, name string, dryRun bool) (*dockb.RefreshResult, error)
	BackfillVectorsFn     func(ctx context.Context, name string) (int, error)
}

func (s *KnowledgeBaseService) CreateKnowledgeBase(ctx context.Context, kb *dockb.KnowledgeBase) (*dockb.KnowledgeBase, error) {
	return s.CreateKnowledgeBaseFn(ctx, kb)
}

func (s *KnowledgeBaseService) UpdateKnowledgeBase(ctx context.Context, name string, upd dockb.KnowledgeBaseUpdate) (*dockb.KnowledgeBase, error) {
	return s.UpdateKnowledgeBaseFn(ctx, name, upd)
}

func (s *KnowledgeBaseService) IndexPages(ctx context.Context, name string, urls []string, opts dockb.IndexPagesOptions) (*dockb.IndexReport, error) {
	return s.IndexPagesFn(ctx, name, urls, opts)
}

func (s *KnowledgeBaseService) IndexDomain(ctx context.Context, name, target string, opts dockb.IndexDomainOptions) (*dockb.IndexReport, error) {
	return s.IndexDomainFn(ctx, name, target, opts)
}

func (s *KnowledgeBaseService) Search(ctx context.Context, name, query string, topK int) ([]*dockb.SearchResult, error) {
	return s.SearchFn(ctx, name, query, topK)
}

func (s *KnowledgeBaseService) ListDocuments(ctx context.Context, name string, filter dockb.DocumentFilter) ([]*dockb.DocumentSummary, error) {
	return s.ListDocumentsFn(ctx, name, filter)
}

func (s *KnowledgeBaseService) GetDocument(ctx context.Context, name, url string) (*dockb.Document, error) {
	return s.GetDocumentFn(ctx, name, url)
}

func (s *KnowledgeBaseService) RemoveDocuments(ctx context.Context, name string, urls []string) (int, error) {
	return s.RemoveDocumentsFn(ctx, name, urls)
}

func (s *KnowledgeBaseService) DeleteKnowledgeBase(ctx context.Context, name string) error {
	return s.DeleteKnowledgeBaseFn(ctx, name)
}

func (s *KnowledgeBaseService) ListKnowledgeBases(ctx context.Context) ([]*dockb.KnowledgeBaseSummary, error) {
	return s.ListKnowledgeBasesFn(ctx)
}

func (s *KnowledgeBaseService) Refresh(ctx context.Context, name string, dryRun bool) (*dockb.RefreshResult, error) {
	return s.RefreshFn(ctx, name, dryRun)
}

func (s *KnowledgeBaseService) BackfillVectors(ctx context.Context, name string) (int, error) {
	return s.BackfillVectorsFn(ctx, name)
}
