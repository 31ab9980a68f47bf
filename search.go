package dockb

import (
	"context"
	"time"
)

// Fusion weights for hybrid ranking.
const (
	SemanticWeight = 0.7
	LexicalWeight  = 0.3
)

// DefaultTopK is the number of results returned when none is requested.
const DefaultTopK = 10

// SubQuery labels.
const (
	SubQueryOriginal = "original"
	SubQueryCompound = "compound"
	SubQueryKeyword  = "keyword"
)

// SubQuery is one of the narrower queries derived from a user query.
type SubQuery struct {
	Text  string
	Label string
}

// QueryPlanner decomposes a free-text query into sub-queries.
type QueryPlanner interface {
	// Expand returns the sub-queries for query. The original query is
	// always the first sub-query. Sub-queries are unique case-insensitively.
	Expand(query string) []SubQuery
}

// SearchResult is one ranked document of a search.
type SearchResult struct {
	DocumentID  string    `json:"documentId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Breadcrumb  string    `json:"breadcrumb,omitempty"`
	IndexedAt   time.Time `json:"indexedAt"`

	// LexicalScore and SemanticScore are normalized to [0,1] within one search.
	LexicalScore  float64 `json:"lexicalScore"`
	SemanticScore float64 `json:"semanticScore"`
	Score         float64 `json:"score"`

	// SubQuery is the sub-query that contributed most to the fused score.
	SubQuery      string `json:"subQuery"`
	SubQueryLabel string `json:"subQueryLabel"`
}

// Searcher answers queries against one knowledge base.
type Searcher interface {
	// Search returns up to topK results ordered by descending fused score.
	// Returns EINVALID for an empty query.
	Search(ctx context.Context, query string, topK int) ([]*SearchResult, error)
}
