// Package static implements a deterministic, offline embedder based on
// feature hashing. Quality is well below a trained model but it needs no
// network and no API key.
package static

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/dockb"
)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 256

// Feature weights.
const (
	termWeight   = 0.7
	ngramWeight  = 0.3
	ngramSize    = 3
	maxNgramText = 4000
)

var _ dockb.Embedder = (*Embedder)(nil)

// Embedder hashes terms and character trigrams into a fixed number of buckets.
type Embedder struct {
	tokenizer  dockb.Tokenizer
	dimensions int
}

// NewEmbedder returns an Embedder producing vectors of the given size.
func NewEmbedder(tokenizer dockb.Tokenizer, dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{tokenizer: tokenizer, dimensions: dimensions}
}

// Name identifies the embedder and its size.
func (e *Embedder) Name() string {
	return fmt.Sprintf("static/hash-%d", e.dimensions)
}

// Embed returns a unit-length vector for text.
// Returns EINVALID if text has no indexable terms.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms := e.tokenizer.Tokenize(text)
	if len(terms) == 0 {
		return nil, dockb.Errorf(dockb.EINVALID, "text has no indexable terms")
	}

	vec := make([]float64, e.dimensions)
	for _, term := range terms {
		e.add(vec, "t:"+term, termWeight)
	}

	joined := strings.Join(terms, " ")
	if len(joined) > maxNgramText {
		joined = joined[:maxNgramText]
	}
	runes := []rune(joined)
	for i := 0; i+ngramSize <= len(runes); i++ {
		e.add(vec, "g:"+string(runes[i:i+ngramSize]), ngramWeight)
	}

	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float32, e.dimensions)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out, nil
}

// add folds a feature into its bucket. One hash bit picks the sign so that
// collisions tend to cancel out.
func (e *Embedder) add(vec []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	i := int(h % uint64(e.dimensions))
	if h&(1<<63) != 0 {
		weight = -weight
	}
	vec[i] += weight
}
