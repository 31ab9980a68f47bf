// Package openai implements dockb.Embedder against any OpenAI-compatible
// embeddings endpoint.
package openai

import (
	"context"
	"errors"

	"github.com/fwojciec/dockb"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

var _ dockb.Embedder = (*Embedder)(nil)

// Config holds the embedding provider settings.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a self-hosted server.
	BaseURL    string
	Model      string
	Dimensions int
}

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(model),
		dimensions: cfg.Dimensions,
	}
}

// Name returns "openai/<model>".
func (e *Embedder) Name() string {
	return "openai/" + string(e.model)
}

// Embed returns the embedding of text.
// API and transport failures are reported as EUNAVAILABLE.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, dockb.Errorf(dockb.EINVALID, "text required")
	}

	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, dockb.Errorf(dockb.EUNAVAILABLE, "empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

// parseAPIError maps client errors to application errors. Cancellation is
// passed through unchanged.
func parseAPIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return dockb.Errorf(dockb.EUNAVAILABLE, "embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return dockb.Errorf(dockb.EUNAVAILABLE, "embedding API error %d", reqErr.HTTPStatusCode)
	}

	return dockb.Errorf(dockb.EUNAVAILABLE, "embedding request failed: %v", err)
}
