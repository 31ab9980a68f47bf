package mock

import (
	"context"

	"github.com/fwojciec/dockb"
)

var _ dockb.Asker = (*Asker)(nil)

// Asker is a mock implementation of dockb.Asker.
type Asker struct {
	AskFn func(ctx context.Context, kbName, question string) (string, error)
}

func (a *Asker) Ask(ctx context.Context, kbName, question string) (string, error) {
	return a.AskFn(ctx, kbName, question)
}

var _ dockb.Retriever = (*Retriever)(nil)

// Retriever is a mock implementation of dockb.Retriever.
type Retriever struct {
	RetrieveFn func(ctx context.Context, kbName, query string, limit int) ([]*dockb.Document, error)
}

func (r *Retriever) Retrieve(ctx context.Context, kbName, query string, limit int) ([]*dockb.Document, error) {
	return r.RetrieveFn(ctx, kbName, query, limit)
}

var _ dockb.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of dockb.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return c.CountTokensFn(ctx, text)
}
