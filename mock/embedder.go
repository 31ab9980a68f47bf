package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of dockb.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, text string) ([]float32, error)
	NameFn  func() string
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) Name() string {
	return e.NameFn()
}

var _ dockb.VectorService = (*VectorService)(nil)

// VectorService is a mock implementation of dockb.VectorService.
type VectorService struct {
	PutVectorFn                  func(ctx context.Context, v *dockb.Vector) error
	DeleteVectorFn               func(ctx context.Context, documentID string) error
	FindVectorsFn                func(ctx context.Context) ([]*dockb.Vector, error)
	FindDocumentsWithoutVectorFn func(ctx context.Context) ([]string, error)
}

func (s *VectorService) PutVector(ctx context.Context, v *dockb.Vector) error {
	return s.PutVectorFn(ctx, v)
}

func (s *VectorService) DeleteVector(ctx context.Context, documentID string) error {
	return s.DeleteVectorFn(ctx, documentID)
}

func (s *VectorService) FindVectors(ctx context.Context) ([]*dockb.Vector, error) {
	return s.FindVectorsFn(ctx)
}

func (s *VectorService) FindDocumentsWithoutVector(ctx context.Context) ([]string, error) {
	return s.FindDocumentsWithoutVectorFn(ctx)
}
