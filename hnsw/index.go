// Package hnsw provides an in-memory approximate nearest neighbor index over
// document vectors, backed by github.com/coder/hnsw.
package hnsw

import (
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"
	"github.com/fwojciec/dockb"
)

// Graph parameters.
const (
	DefaultM        = 16
	DefaultEfSearch = 64
)

// ExactSearchLimit is the number of live vectors up to which Search scans every
// vector instead of walking the graph.
const ExactSearchLimit = 512

// Match is a document found by Search.
type Match struct {
	ID         string
	Similarity float64
}

// Index maps document IDs to vectors and answers cosine similarity queries.
//
// The graph is keyed by uint64. Replacing or deleting a document orphans its
// old node instead of removing it from the graph, since coder/hnsw does not
// handle deletion of the last node well. Orphans are skipped in results.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	dims  int

	idMap   map[string]uint64
	keyMap  map[uint64]string
	vectors map[string][]float32 // normalized
	nextKey uint64
}

// NewIndex returns an empty index. Dimensions are fixed by the first vector added.
func NewIndex() *Index {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = DefaultM
	graph.EfSearch = DefaultEfSearch
	graph.Ml = 0.25

	return &Index{
		graph:   graph,
		idMap:   make(map[string]uint64),
		keyMap:  make(map[uint64]string),
		vectors: make(map[string][]float32),
	}
}

// Add inserts or replaces the vector of a document.
// Returns EINVALID for an empty, zero or wrongly sized vector.
func (idx *Index) Add(id string, values []float32) error {
	if len(values) == 0 {
		return dockb.Errorf(dockb.EINVALID, "vector for %q is empty", id)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dims == 0 {
		idx.dims = len(values)
	} else if len(values) != idx.dims {
		return dockb.Errorf(dockb.EINVALID, "vector for %q has %d dimensions, index has %d", id, len(values), idx.dims)
	}

	vec := normalize(values)
	if vec == nil {
		return dockb.Errorf(dockb.EINVALID, "vector for %q has zero magnitude", id)
	}

	if old, ok := idx.idMap[id]; ok {
		delete(idx.keyMap, old)
	}

	key := idx.nextKey
	idx.nextKey++
	idx.graph.Add(hnsw.MakeNode(key, vec))

	idx.idMap[id] = key
	idx.keyMap[key] = id
	idx.vectors[id] = vec
	return nil
}

// Delete forgets the vector of a document. Unknown IDs are ignored.
func (idx *Index) Delete(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if key, ok := idx.idMap[id]; ok {
		delete(idx.keyMap, key)
		delete(idx.idMap, id)
		delete(idx.vectors, id)
	}
}

// Len returns the number of live vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idMap)
}

// Dimensions returns the vector size of the index, or 0 if nothing was added yet.
func (idx *Index) Dimensions() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dims
}

// Search returns up to k documents most similar to query, by descending
// cosine similarity then ascending ID. Candidates from the graph are
// rescored exactly against the stored vectors.
// Returns EINVALID if query does not match the index dimensions.
func (idx *Index) Search(query []float32, k int) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.idMap) == 0 {
		return nil, nil
	}
	if len(query) != idx.dims {
		return nil, dockb.Errorf(dockb.EINVALID, "query has %d dimensions, index has %d", len(query), idx.dims)
	}

	q := normalize(query)
	if q == nil {
		return nil, nil
	}

	var candidates []string
	if len(idx.idMap) <= ExactSearchLimit {
		candidates = make([]string, 0, len(idx.idMap))
		for id := range idx.idMap {
			candidates = append(candidates, id)
		}
	} else {
		orphans := idx.graph.Len() - len(idx.idMap)
		for _, node := range idx.graph.Search(q, k+orphans) {
			if id, ok := idx.keyMap[node.Key]; ok {
				candidates = append(candidates, id)
			}
		}
	}

	matches := make([]Match, 0, len(candidates))
	for _, id := range candidates {
		matches = append(matches, Match{ID: id, Similarity: dot(q, idx.vectors[id])})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// normalize returns a unit-length copy of v, or nil if v has zero magnitude.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
