package dockb

import (
	"context"
	"time"
)

// Hit is a document matched by a search index.
type Hit struct {
	DocumentID string
	Score      float64
	IndexedAt  time.Time
}

// SearchIndex is a per knowledge base index over document text.
// Both the lexical and the embedding indexer implement it.
type SearchIndex interface {
	// UpsertDocument (re)indexes a stored document.
	UpsertDocument(ctx context.Context, doc *Document) error

	// RemoveDocument drops a document from the index.
	RemoveDocument(ctx context.Context, id string) error

	// Search returns up to topK hits ordered by descending score.
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
}

// Tokenizer splits text into normalized index terms.
type Tokenizer interface {
	// Tokenize returns lowercased terms with punctuation and stop words removed,
	// in text order. Repeated terms are kept.
	Tokenize(text string) []string
}
