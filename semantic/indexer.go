// Package semantic implements embedding-based document retrieval on top of
// persisted vectors and an in-memory HNSW graph.
package semantic

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/hnsw"
)

// MaxEmbeddedChars bounds the text sent to the embedding provider per document.
const MaxEmbeddedChars = 2000

var _ dockb.SearchIndex = (*Indexer)(nil)

// Indexer is the embedding search index of one knowledge base.
//
// Vectors live in the VectorService. The graph used for retrieval is built
// from them on first search and kept in step by UpsertDocument,
// RemoveDocument and Track. Vectors produced by another provider than the
// current embedder are ignored until they are backfilled.
type Indexer struct {
	embedder dockb.Embedder
	vectors  dockb.VectorService

	// Threshold is the minimum cosine similarity of a hit.
	Threshold float64
	Logger    *slog.Logger

	mu    sync.Mutex
	index *hnsw.Index
}

// NewIndexer returns an Indexer using the default similarity threshold.
func NewIndexer(embedder dockb.Embedder, vectors dockb.VectorService) *Indexer {
	return &Indexer{
		embedder:  embedder,
		vectors:   vectors,
		Threshold: dockb.DefaultSimilarityThreshold,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// EmbeddingText returns the text embedded for doc: title, description and
// body, cut to MaxEmbeddedChars characters.
func EmbeddingText(doc *dockb.Document) string {
	var parts []string
	for _, s := range []string{doc.Title, doc.Description, doc.Text} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, "\n")
	if utf8.RuneCountInString(text) <= MaxEmbeddedChars {
		return text
	}
	return string([]rune(text)[:MaxEmbeddedChars])
}

// Vectorize computes the vector of doc without storing it.
// Provider failures are EUNAVAILABLE.
func (ix *Indexer) Vectorize(ctx context.Context, doc *dockb.Document) (*dockb.Vector, error) {
	values, err := ix.embedder.Embed(ctx, EmbeddingText(doc))
	if err != nil {
		return nil, err
	}
	return &dockb.Vector{DocumentID: doc.ID, Provider: ix.embedder.Name(), Values: values}, nil
}

// UpsertDocument embeds and stores the vector of a stored document.
func (ix *Indexer) UpsertDocument(ctx context.Context, doc *dockb.Document) error {
	v, err := ix.Vectorize(ctx, doc)
	if err != nil {
		return err
	}
	if err := ix.vectors.PutVector(ctx, v); err != nil {
		return err
	}
	ix.Track(v)
	return nil
}

// RemoveDocument deletes the vector of a document.
func (ix *Indexer) RemoveDocument(ctx context.Context, id string) error {
	if err := ix.vectors.DeleteVector(ctx, id); err != nil {
		return err
	}
	ix.Forget(id)
	return nil
}

// Track adds a vector that was persisted elsewhere to the in-memory graph.
// It does nothing until the graph has been loaded.
func (ix *Indexer) Track(v *dockb.Vector) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index == nil || v.Provider != ix.embedder.Name() {
		return
	}
	if err := ix.index.Add(v.DocumentID, v.Values); err != nil {
		ix.Logger.Warn("vector not added to graph", "id", v.DocumentID, "error", err)
	}
}

// Forget drops a document from the in-memory graph.
func (ix *Indexer) Forget(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index != nil {
		ix.index.Delete(id)
	}
}

// Reset discards the in-memory graph. The next search rebuilds it.
func (ix *Indexer) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.index = nil
}

// Search returns documents whose similarity to query is at least Threshold,
// most similar first. An unavailable provider yields no hits and no error.
func (ix *Indexer) Search(ctx context.Context, query string, topK int) ([]dockb.Hit, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}

	qv, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ix.Logger.Warn("semantic search skipped", "provider", ix.embedder.Name(), "error", err)
		return nil, nil
	}

	idx, err := ix.load(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := idx.Search(qv, topK)
	if err != nil {
		ix.Logger.Warn("semantic search skipped", "provider", ix.embedder.Name(), "error", err)
		return nil, nil
	}

	hits := make([]dockb.Hit, 0, len(matches))
	for _, m := range matches {
		if m.Similarity < ix.Threshold {
			break
		}
		hits = append(hits, dockb.Hit{DocumentID: m.ID, Score: m.Similarity})
	}
	return hits, nil
}

// load builds the graph from persisted vectors on first use.
func (ix *Indexer) load(ctx context.Context) (*hnsw.Index, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index != nil {
		return ix.index, nil
	}

	vectors, err := ix.vectors.FindVectors(ctx)
	if err != nil {
		return nil, err
	}

	idx := hnsw.NewIndex()
	name := ix.embedder.Name()
	stale := 0
	for _, v := range vectors {
		if v.Provider != name {
			stale++
			continue
		}
		if err := idx.Add(v.DocumentID, v.Values); err != nil {
			ix.Logger.Warn("vector not added to graph", "id", v.DocumentID, "error", err)
		}
	}
	if stale > 0 {
		ix.Logger.Info("ignoring vectors from another provider", "count", stale, "provider", name)
	}

	ix.index = idx
	return idx, nil
}

// Backfill computes vectors for documents that have none, or whose vector
// came from another provider. It stops at the first unavailable-provider
// error and returns how many vectors were written.
func (ix *Indexer) Backfill(ctx context.Context, docs dockb.DocumentService) (int, error) {
	ids, err := ix.vectors.FindDocumentsWithoutVector(ctx)
	if err != nil {
		return 0, err
	}

	vectors, err := ix.vectors.FindVectors(ctx)
	if err != nil {
		return 0, err
	}
	for _, v := range vectors {
		if v.Provider != ix.embedder.Name() {
			ids = append(ids, v.DocumentID)
		}
	}

	n := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		doc, err := docs.FindDocumentByID(ctx, id)
		if dockb.ErrorCode(err) == dockb.ENOTFOUND {
			continue
		} else if err != nil {
			return n, err
		}

		if err := ix.UpsertDocument(ctx, doc); err != nil {
			switch dockb.ErrorCode(err) {
			case dockb.EUNAVAILABLE:
				return n, err
			case dockb.EINVALID, dockb.ENOTFOUND:
				ix.Logger.Warn("document not embedded", "id", id, "error", err)
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}
