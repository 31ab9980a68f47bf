package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of dockb.DocumentService.
type DocumentService struct {
	PutDocumentFn        func(ctx context.Context, doc *dockb.Document, force bool) (dockb.PutOutcome, error)
	FindDocumentByIDFn   func(ctx context.Context, id string) (*dockb.Document, error)
	FindDocumentsFn      func(ctx context.Context, filter dockb.DocumentFilter) ([]*dockb.Document, error)
	ContentHashFn        func(ctx context.Context, id string) (string, error)
	DeleteDocumentFn     func(ctx context.Context, id string) error
	DeleteAllDocumentsFn func(ctx context.Context) (int, error)
	StatsFn              func(ctx context.Context) (*dockb.DocumentStats, error)
}

func (s *DocumentService) PutDocument(ctx context.Context, doc *dockb.Document, force bool) (dockb.PutOutcome, error) {
	return s.PutDocumentFn(ctx, doc, force)
}

func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*dockb.Document, error) {
	return s.FindDocumentByIDFn(ctx, id)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter dockb.DocumentFilter) ([]*dockb.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) ContentHash(ctx context.Context, id string) (string, error) {
	return s.ContentHashFn(ctx, id)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

func (s *DocumentService) DeleteAllDocuments(ctx context.Context) (int, error) {
	return s.DeleteAllDocumentsFn(ctx)
}

func (s *DocumentService) Stats(ctx context.Context) (*dockb.DocumentStats, error) {
	return s.StatsFn(ctx)
}
