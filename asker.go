package dockb

import "context"

// Asker provides natural language question answering over a knowledge base.
type Asker interface {
	// Ask answers a question using the most relevant indexed documents.
	// Returns ENOTFOUND if the knowledge base does not exist.
	Ask(ctx context.Context, kbName string, question string) (string, error)
}

// Retriever returns the stored documents most relevant to a query.
type Retriever interface {
	// Retrieve searches a knowledge base and returns up to limit full documents
	// in ranking order.
	Retrieve(ctx context.Context, kbName, query string, limit int) ([]*Document, error)
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
