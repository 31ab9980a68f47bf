package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.SearchIndex = (*SearchIndex)(nil)

// SearchIndex is a mock implementation of dockb.SearchIndex.
type SearchIndex struct {
	UpsertDocumentFn func(ctx context.Context, doc *dockb.Document) error
	RemoveDocumentFn func(ctx context.Context, id string) error
	SearchFn         func(ctx context.Context, query string, topK int) ([]dockb.Hit, error)
}

func (i *SearchIndex) UpsertDocument(ctx context.Context, doc *dockb.Document) error {
	return i.UpsertDocumentFn(ctx, doc)
}

func (i *SearchIndex) RemoveDocument(ctx context.Context, id string) error {
	return i.RemoveDocumentFn(ctx, id)
}

func (i *SearchIndex) Search(ctx context.Context, query string, topK int) ([]dockb.Hit, error) {
	return i.SearchFn(ctx, query, topK)
}

var _ dockb.Tokenizer = (*Tokenizer)(nil)

// Tokenizer is a mock implementation of dockb.Tokenizer.
type Tokenizer struct {
	TokenizeFn func(text string) []string
}

func (t *Tokenizer) Tokenize(text string) []string {
	return t.TokenizeFn(text)
}
