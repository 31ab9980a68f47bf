package search_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/mock"
	"github.com/fwojciec/dockb/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// planner returns the given sub-queries, the original first.
func planner(extra ...dockb.SubQuery) *mock.QueryPlanner {
	return &mock.QueryPlanner{
		ExpandFn: func(q string) []dockb.SubQuery {
			return append([]dockb.SubQuery{{Text: q, Label: dockb.SubQueryOriginal}}, extra...)
		},
	}
}

// index serves fixed hits per sub-query text.
func index(hits map[string][]dockb.Hit) *mock.SearchIndex {
	return &mock.SearchIndex{
		SearchFn: func(_ context.Context, q string, _ int) ([]dockb.Hit, error) {
			return hits[q], nil
		},
	}
}

// documents serves stored documents by ID.
func documents(docs ...*dockb.Document) *mock.DocumentService {
	return &mock.DocumentService{
		FindDocumentsFn: func(_ context.Context, f dockb.DocumentFilter) ([]*dockb.Document, error) {
			var out []*dockb.Document
			for _, id := range f.IDs {
				for _, d := range docs {
					if d.ID == id {
						out = append(out, d)
					}
				}
			}
			return out, nil
		},
	}
}

func doc(id string, indexedAt time.Time) *dockb.Document {
	return &dockb.Document{ID: id, Title: "Title " + id, IndexedAt: indexedAt}
}

func TestRanker_Search(t *testing.T) {
	t.Parallel()

	t.Run("semantic weight outranks a higher lexical score", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{
			Planner:   planner(),
			Lexical:   index(map[string][]dockb.Hit{"q": {{DocumentID: "b", Score: 2}, {DocumentID: "a", Score: 1}}}),
			Semantic:  index(map[string][]dockb.Hit{"q": {{DocumentID: "a", Score: 0.9}, {DocumentID: "b", Score: 0.3}}}),
			Documents: documents(doc("a", base), doc("b", base)),
		}

		for i := 0; i < 3; i++ {
			got, err := r.Search(context.Background(), "q", 10)
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, "a", got[0].DocumentID)
			assert.InDelta(t, 1.0, got[0].SemanticScore, 1e-9)
			assert.InDelta(t, 0.5, got[0].LexicalScore, 1e-9)
			assert.InDelta(t, 0.85, got[0].Score, 1e-9)
			assert.Equal(t, "b", got[1].DocumentID)
			assert.InDelta(t, 0.7*(0.3/0.9)+0.3, got[1].Score, 1e-9)
		}
	})

	t.Run("uses lexical scores alone without semantic hits", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{
			Planner:   planner(),
			Lexical:   index(map[string][]dockb.Hit{"q": {{DocumentID: "a", Score: 4}, {DocumentID: "b", Score: 1}}}),
			Semantic:  index(nil),
			Documents: documents(doc("a", base), doc("b", base)),
		}

		got, err := r.Search(context.Background(), "q", 10)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.InDelta(t, 1.0, got[0].Score, 1e-9)
		assert.InDelta(t, 0.25, got[1].Score, 1e-9)
		assert.Zero(t, got[1].SemanticScore)
	})

	t.Run("searches lexically when semantic search is disabled", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{
			Planner:   planner(),
			Lexical:   index(map[string][]dockb.Hit{"q": {{DocumentID: "a", Score: 3}}}),
			Documents: documents(doc("a", base)),
		}

		got, err := r.Search(context.Background(), "q", 10)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	})

	t.Run("returns each document once with its best scores across sub-queries", func(t *testing.T) {
		t.Parallel()

		kw := dockb.SubQuery{Text: "action", Label: dockb.SubQueryKeyword}
		r := &search.Ranker{
			Planner: planner(kw),
			Lexical: index(map[string][]dockb.Hit{
				"http action": {{DocumentID: "a", Score: 1}},
				"action":      {{DocumentID: "a", Score: 4}, {DocumentID: "b", Score: 2}},
			}),
			Semantic: index(map[string][]dockb.Hit{
				"http action": {{DocumentID: "a", Score: 0.8}},
				"action":      {{DocumentID: "a", Score: 0.6}, {DocumentID: "b", Score: 0.4}},
			}),
			Documents: documents(doc("a", base), doc("b", base)),
		}

		got, err := r.Search(context.Background(), "http action", 10)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].DocumentID)
		assert.InDelta(t, 1.0, got[0].LexicalScore, 1e-9)
		assert.InDelta(t, 1.0, got[0].SemanticScore, 1e-9)
		assert.InDelta(t, 1.0, got[0].Score, 1e-9)
		assert.Equal(t, "b", got[1].DocumentID)
		assert.Equal(t, "action", got[1].SubQuery)
		assert.Equal(t, dockb.SubQueryKeyword, got[1].SubQueryLabel)
	})

	t.Run("labels results with the strongest sub-query", func(t *testing.T) {
		t.Parallel()

		compound := dockb.SubQuery{Text: "http action", Label: dockb.SubQueryCompound}
		r := &search.Ranker{
			Planner: planner(compound),
			Lexical: index(map[string][]dockb.Hit{
				"configure http action": {{DocumentID: "a", Score: 1}},
				"http action":           {{DocumentID: "a", Score: 2}},
			}),
			Documents: documents(doc("a", base)),
		}

		got, err := r.Search(context.Background(), "configure http action", 10)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "http action", got[0].SubQuery)
		assert.Equal(t, dockb.SubQueryCompound, got[0].SubQueryLabel)
	})

	t.Run("breaks ties by recency then ID and truncates to topK", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{
			Planner: planner(),
			Lexical: index(map[string][]dockb.Hit{"q": {
				{DocumentID: "c", Score: 1},
				{DocumentID: "b", Score: 1},
				{DocumentID: "a", Score: 1},
			}}),
			Documents: documents(doc("a", base), doc("b", base.Add(time.Hour)), doc("c", base)),
		}

		got, err := r.Search(context.Background(), "q", 2)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].DocumentID)
		assert.Equal(t, "a", got[1].DocumentID)
	})

	t.Run("drops hits whose documents are gone", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{
			Planner:   planner(),
			Lexical:   index(map[string][]dockb.Hit{"q": {{DocumentID: "a", Score: 1}, {DocumentID: "ghost", Score: 2}}}),
			Documents: documents(doc("a", base)),
		}

		got, err := r.Search(context.Background(), "q", 10)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].DocumentID)
	})

	t.Run("returns an empty list when nothing matches", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{Planner: planner(), Lexical: index(nil), Documents: documents()}

		got, err := r.Search(context.Background(), "q", 10)

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("rejects an empty query", func(t *testing.T) {
		t.Parallel()

		_, err := (&search.Ranker{}).Search(context.Background(), "  ", 10)

		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	})

	t.Run("fails when a channel fails", func(t *testing.T) {
		t.Parallel()

		r := &search.Ranker{
			Planner: planner(),
			Lexical: &mock.SearchIndex{SearchFn: func(context.Context, string, int) ([]dockb.Hit, error) {
				return nil, errors.New("database is locked")
			}},
			Documents: documents(),
		}

		_, err := r.Search(context.Background(), "q", 10)

		assert.EqualError(t, err, "database is locked")
	})

	t.Run("discards results when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		r := &search.Ranker{
			Planner: planner(),
			Lexical: &mock.SearchIndex{SearchFn: func(context.Context, string, int) ([]dockb.Hit, error) {
				cancel()
				return []dockb.Hit{{DocumentID: "a", Score: 1}}, nil
			}},
			Documents: documents(doc("a", base)),
		}

		got, err := r.Search(ctx, "q", 10)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
	})

	t.Run("asks each channel for more candidates than topK", func(t *testing.T) {
		t.Parallel()

		var asked int
		r := &search.Ranker{
			Planner: planner(),
			Lexical: &mock.SearchIndex{SearchFn: func(_ context.Context, _ string, k int) ([]dockb.Hit, error) {
				asked = k
				return nil, nil
			}},
			Documents: documents(),
		}

		_, err := r.Search(context.Background(), "q", 0)

		require.NoError(t, err)
		assert.Equal(t, dockb.DefaultTopK*search.CandidateFactor, asked)
	})
}
