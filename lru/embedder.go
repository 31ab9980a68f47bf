// Package lru caches embeddings in memory using github.com/hashicorp/golang-lru.
package lru

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/dockb"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the number of embeddings kept when no size is given.
// At 768 dimensions this is about 3 MB.
const DefaultSize = 1000

var _ dockb.Embedder = (*Embedder)(nil)

// Embedder wraps a dockb.Embedder and remembers recent results, keyed by
// provider name and text. Errors are never cached.
type Embedder struct {
	next  dockb.Embedder
	cache *lru.Cache[string, []float32]
}

// NewEmbedder returns a caching Embedder holding up to size entries.
func NewEmbedder(next dockb.Embedder, size int) *Embedder {
	if size <= 0 {
		size = DefaultSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &Embedder{next: next, cache: cache}
}

// Embed returns the cached vector for text, computing it on a miss.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.key(text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}

// Name returns the name of the wrapped embedder.
func (e *Embedder) Name() string {
	return e.next.Name()
}

// Len returns the number of cached embeddings.
func (e *Embedder) Len() int {
	return e.cache.Len()
}

func (e *Embedder) key(text string) string {
	d := xxhash.New()
	_, _ = d.WriteString(e.next.Name())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return strconv.FormatUint(d.Sum64(), 16) + ":" + strconv.Itoa(len(text))
}
