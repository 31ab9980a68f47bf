package metrics

import (
	"context"
	"time"

	"github.com/fwojciec/dockb"
)

var _ dockb.Embedder = (*Embedder)(nil)

// Embedder counts and times calls to the wrapped embedder by provider.
type Embedder struct {
	next    dockb.Embedder
	metrics *Metrics
}

// NewEmbedder wraps next.
func (m *Metrics) NewEmbedder(next dockb.Embedder) *Embedder {
	return &Embedder{next: next, metrics: m}
}

// Embed implements dockb.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	provider := e.next.Name()
	start := time.Now()
	vec, err := e.next.Embed(ctx, text)
	e.metrics.EmbedDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	e.metrics.EmbedRequestsTotal.WithLabelValues(provider, status(err)).Inc()
	return vec, err
}

// Name implements dockb.Embedder.
func (e *Embedder) Name() string { return e.next.Name() }
