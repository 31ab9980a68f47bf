package gemini

import (
	"context"
	"errors"

	"github.com/fwojciec/dockb"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the embedding model used when none is configured.
const DefaultEmbeddingModel = "gemini-embedding-001"

// DefaultEmbeddingDimensions is the output size requested from the model.
const DefaultEmbeddingDimensions = 768

var _ dockb.Embedder = (*Embedder)(nil)

// Embedder implements dockb.Embedder with the Gemini embeddings API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewEmbedder creates an Embedder. Empty model and non-positive dimensions
// fall back to the defaults.
func NewEmbedder(client *genai.Client, model string, dimensions int) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Embedder{client: client, model: model, dimensions: int32(dimensions)}
}

// Name returns "gemini/<model>".
func (e *Embedder) Name() string {
	return "gemini/" + e.model
}

// Embed returns the embedding of text.
// Any API or transport failure is reported as EUNAVAILABLE.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, dockb.Errorf(dockb.EINVALID, "text required")
	}
	if e.client == nil {
		return nil, dockb.Errorf(dockb.EUNAVAILABLE, "gemini client not configured")
	}

	dims := e.dimensions
	resp, err := e.client.Models.EmbedContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, "user")},
		&genai.EmbedContentConfig{OutputDimensionality: &dims},
	)
	if err != nil {
		return nil, embedError(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, dockb.Errorf(dockb.EUNAVAILABLE, "gemini returned no embedding")
	}
	return resp.Embeddings[0].Values, nil
}

func embedError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return dockb.Errorf(dockb.EUNAVAILABLE, "gemini embed: %d %s", apiErr.Code, apiErr.Message)
	}
	return dockb.Errorf(dockb.EUNAVAILABLE, "gemini embed: %v", err)
}
