package hnsw_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/hnsw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	t.Run("orders by cosine similarity", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		require.NoError(t, idx.Add("x", []float32{1, 0}))
		require.NoError(t, idx.Add("diag", []float32{1, 1}))
		require.NoError(t, idx.Add("y", []float32{0, 5}))

		got, err := idx.Search([]float32{2, 0}, 10)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "x", got[0].ID)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
		assert.Equal(t, "diag", got[1].ID)
		assert.InDelta(t, 1/math.Sqrt2, got[1].Similarity, 1e-6)
		assert.Equal(t, "y", got[2].ID)
		assert.InDelta(t, 0.0, got[2].Similarity, 1e-6)
	})

	t.Run("breaks ties by ID", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		require.NoError(t, idx.Add("b", []float32{1, 0}))
		require.NoError(t, idx.Add("a", []float32{3, 0}))

		got, err := idx.Search([]float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("truncates to k", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		for i := 0; i < 5; i++ {
			require.NoError(t, idx.Add(fmt.Sprintf("doc-%d", i), []float32{1, float32(i)}))
		}

		got, err := idx.Search([]float32{1, 0}, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("rejects queries of the wrong size", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		require.NoError(t, idx.Add("a", []float32{1, 0}))

		_, err := idx.Search([]float32{1, 0, 0}, 1)
		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	})

	t.Run("returns nothing when empty", func(t *testing.T) {
		t.Parallel()

		got, err := hnsw.NewIndex().Search([]float32{1}, 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("finds the nearest vector through the graph", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		n := hnsw.ExactSearchLimit + 100
		for i := 0; i < n; i++ {
			angle := float64(i) * math.Pi / float64(n)
			require.NoError(t, idx.Add(fmt.Sprintf("doc-%04d", i), []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}))
		}

		got, err := idx.Search([]float32{1, 0}, 3)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "doc-0000", got[0].ID)
	})
}

func TestIndex_Add(t *testing.T) {
	t.Parallel()

	t.Run("replaces the vector of an existing document", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		require.NoError(t, idx.Add("a", []float32{1, 0}))
		require.NoError(t, idx.Add("a", []float32{0, 1}))

		assert.Equal(t, 1, idx.Len())
		got, err := idx.Search([]float32{0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-6)
	})

	t.Run("fixes dimensions on first insert", func(t *testing.T) {
		t.Parallel()

		idx := hnsw.NewIndex()
		require.NoError(t, idx.Add("a", []float32{1, 0, 0}))

		err := idx.Add("b", []float32{1, 0})

		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
		assert.Equal(t, 3, idx.Dimensions())
	})

	t.Run("rejects zero vectors", func(t *testing.T) {
		t.Parallel()

		err := hnsw.NewIndex().Add("a", []float32{0, 0})

		assert.Equal(t, dockb.EINVALID, dockb.ErrorCode(err))
	})
}

func TestIndex_Delete(t *testing.T) {
	t.Parallel()

	idx := hnsw.NewIndex()
	require.NoError(t, idx.Add("a", []float32{1, 0}))
	require.NoError(t, idx.Add("b", []float32{0, 1}))

	idx.Delete("a")
	idx.Delete("missing")

	assert.Equal(t, 1, idx.Len())
	got, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
