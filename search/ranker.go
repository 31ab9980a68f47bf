package search

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/dockb"
	"golang.org/x/sync/errgroup"
)

// CandidateFactor scales topK into the number of hits requested from each
// channel per sub-query.
const CandidateFactor = 3

var _ dockb.Searcher = (*Ranker)(nil)

// Ranker fuses lexical and semantic rankings over the sub-queries of a query.
type Ranker struct {
	Planner   dockb.QueryPlanner
	Lexical   dockb.SearchIndex
	Documents dockb.DocumentService

	// Semantic is nil when embeddings are disabled.
	Semantic dockb.SearchIndex
}

// channelHits holds the hits of both channels for one sub-query.
type channelHits struct {
	lexical  []dockb.Hit
	semantic []dockb.Hit
}

// candidate accumulates the scores of one document across sub-queries.
type candidate struct {
	id       string
	lexical  []float64 // per sub-query
	semantic []float64 // per sub-query
	maxLex   float64
	maxSem   float64
}

// Search implements dockb.Searcher.
//
// Each sub-query is run against both channels concurrently. A document keeps
// its best score per channel across sub-queries. Channels are normalized by
// their maximum in this call and fused 0.7 semantic, 0.3 lexical; without
// semantic hits the lexical score is used alone. Results are ordered by
// fused score, then most recently indexed, then ID.
func (r *Ranker) Search(ctx context.Context, query string, topK int) ([]*dockb.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, dockb.Errorf(dockb.EINVALID, "query required")
	}
	if topK <= 0 {
		topK = dockb.DefaultTopK
	}

	subs := r.Planner.Expand(query)
	if len(subs) == 0 {
		subs = []dockb.SubQuery{{Text: query, Label: dockb.SubQueryOriginal}}
	}

	hits, err := r.fanOut(ctx, subs, topK*CandidateFactor)
	if err != nil {
		return nil, err
	}

	candidates, maxLex, maxSem := merge(hits)
	if len(candidates) == 0 {
		return []*dockb.SearchResult{}, nil
	}

	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	docs, err := r.Documents.FindDocuments(ctx, dockb.DocumentFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]*dockb.SearchResult, 0, len(docs))
	for _, doc := range docs {
		c := candidates[doc.ID]
		if c == nil {
			continue
		}
		res := &dockb.SearchResult{
			DocumentID:    doc.ID,
			Title:         doc.Title,
			Description:   doc.Description,
			Breadcrumb:    doc.Breadcrumb,
			IndexedAt:     doc.IndexedAt,
			LexicalScore:  normalize(c.maxLex, maxLex),
			SemanticScore: normalize(c.maxSem, maxSem),
		}
		res.Score = fuse(res.SemanticScore, res.LexicalScore, maxSem > 0)

		best, bestScore := 0, -1.0
		for i := range subs {
			s := fuse(normalize(c.semantic[i], maxSem), normalize(c.lexical[i], maxLex), maxSem > 0)
			if s > bestScore {
				best, bestScore = i, s
			}
		}
		res.SubQuery = subs[best].Text
		res.SubQueryLabel = subs[best].Label

		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.IndexedAt.Equal(b.IndexedAt) {
			return a.IndexedAt.After(b.IndexedAt)
		}
		return a.DocumentID < b.DocumentID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// fanOut queries every channel for every sub-query concurrently. Any error
// fails the whole search.
func (r *Ranker) fanOut(ctx context.Context, subs []dockb.SubQuery, limit int) ([]channelHits, error) {
	hits := make([]channelHits, len(subs))

	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subs {
		g.Go(func() error {
			res, err := r.Lexical.Search(gctx, sq.Text, limit)
			hits[i].lexical = res
			return err
		})
		if r.Semantic != nil {
			g.Go(func() error {
				res, err := r.Semantic.Search(gctx, sq.Text, limit)
				hits[i].semantic = res
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// merge groups hits by document, keeping per sub-query scores and the
// maximum per channel. It returns the channel maxima over all documents.
// Non-positive semantic scores are ignored so normalization stays in [0,1].
func merge(hits []channelHits) (map[string]*candidate, float64, float64) {
	candidates := make(map[string]*candidate)
	get := func(id string) *candidate {
		c, ok := candidates[id]
		if !ok {
			c = &candidate{id: id, lexical: make([]float64, len(hits)), semantic: make([]float64, len(hits))}
			candidates[id] = c
		}
		return c
	}

	var maxLex, maxSem float64
	for i, h := range hits {
		for _, hit := range h.lexical {
			if hit.Score <= 0 {
				continue
			}
			c := get(hit.DocumentID)
			c.lexical[i] = max(c.lexical[i], hit.Score)
			c.maxLex = max(c.maxLex, hit.Score)
			maxLex = max(maxLex, hit.Score)
		}
		for _, hit := range h.semantic {
			if hit.Score <= 0 {
				continue
			}
			c := get(hit.DocumentID)
			c.semantic[i] = max(c.semantic[i], hit.Score)
			c.maxSem = max(c.maxSem, hit.Score)
			maxSem = max(maxSem, hit.Score)
		}
	}
	return candidates, maxLex, maxSem
}

func normalize(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return score / maxScore
}

func fuse(semantic, lexical float64, withSemantic bool) float64 {
	if !withSemantic {
		return lexical
	}
	return dockb.SemanticWeight*semantic + dockb.LexicalWeight*lexical
}
