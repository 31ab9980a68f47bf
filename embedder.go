package dockb

import "context"

// Embedder computes a fixed-dimension vector for a piece of text.
type Embedder interface {
	// Embed returns the vector for text.
	// Returns EUNAVAILABLE when the provider cannot be reached.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider and model, e.g. "gemini/text-embedding-004".
	Name() string
}

// Vector is the embedding of one document.
type Vector struct {
	DocumentID string
	Provider   string
	Values     []float32
}

// Dimensions returns the length of the vector.
func (v *Vector) Dimensions() int { return len(v.Values) }

// VectorService persists document vectors for one knowledge base.
type VectorService interface {
	// PutVector stores the vector of an existing document.
	// Returns ENOTFOUND if the document does not exist.
	PutVector(ctx context.Context, v *Vector) error

	// DeleteVector removes the vector of a document, if any.
	DeleteVector(ctx context.Context, documentID string) error

	// FindVectors returns all stored vectors.
	FindVectors(ctx context.Context) ([]*Vector, error)

	// FindDocumentsWithoutVector returns the IDs of documents lacking a vector.
	FindDocumentsWithoutVector(ctx context.Context) ([]string, error)
}
