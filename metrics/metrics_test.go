package metrics_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/dockb"
	"github.com/fwojciec/dockb/metrics"
	"github.com/fwojciec/dockb/mock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	f := m.NewFetcher(&mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*dockb.Response, error) {
			if url == "https://example.com/missing" {
				return nil, &dockb.FetchError{Kind: dockb.FetchHTTPStatus, URL: url, StatusCode: 404}
			}
			return &dockb.Response{URL: url, StatusCode: 200}, nil
		},
	})

	_, err := f.Fetch(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "https://example.com/b")
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), "https://example.com/missing")
	require.Error(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(m.FetchRequestsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchRequestsTotal.WithLabelValues("http_status")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	fail := false
	e := m.NewEmbedder(&mock.Embedder{
		EmbedFn: func(context.Context, string) ([]float32, error) {
			if fail {
				return nil, dockb.Errorf(dockb.EUNAVAILABLE, "provider down")
			}
			return []float32{1}, nil
		},
		NameFn: func() string { return "static/hash-8" },
	})

	_, err := e.Embed(context.Background(), "a")
	require.NoError(t, err)
	fail = true
	_, err = e.Embed(context.Background(), "b")
	require.Error(t, err)

	assert.Equal(t, "static/hash-8", e.Name())
	assert.InDelta(t, 1, testutil.ToFloat64(m.EmbedRequestsTotal.WithLabelValues("static/hash-8", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.EmbedRequestsTotal.WithLabelValues("static/hash-8", dockb.EUNAVAILABLE)), 0)
}

func TestSearcher_Search(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	s := m.NewSearcher(&mock.Searcher{
		SearchFn: func(_ context.Context, q string, _ int) ([]*dockb.SearchResult, error) {
			if q == "" {
				return nil, dockb.Errorf(dockb.EINVALID, "query required")
			}
			return []*dockb.SearchResult{{DocumentID: "a"}}, nil
		},
	})

	_, err := s.Search(context.Background(), "auth", 10)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "", 10)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues(dockb.EINVALID)), 0)
}

func TestMetrics_WriteFile(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.SearchRequestsTotal.WithLabelValues("ok").Inc()
	path := filepath.Join(t.TempDir(), "dockb.prom")

	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dockb_search_requests_total{status="ok"} 1`)
}

func TestStatusOfInternalErrors(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	s := m.NewSearcher(&mock.Searcher{
		SearchFn: func(context.Context, string, int) ([]*dockb.SearchResult, error) {
			return nil, errors.New("disk I/O error")
		},
	})

	_, _ = s.Search(context.Background(), "q", 1)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues(dockb.EINTERNAL)), 0)
}
