// Package metrics instruments dockb services with Prometheus collectors.
package metrics

import (
	"errors"

	"github.com/fwojciec/dockb"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dockb"

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FetchRequestsTotal  *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	EmbedRequestsTotal  *prometheus.CounterVec
	EmbedDuration       *prometheus.HistogramVec
	SearchRequestsTotal *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	SearchResults       prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		FetchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_requests_total",
				Help:      "Total number of page fetches",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Page fetch duration in seconds, retries included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		EmbedRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_requests_total",
				Help:      "Total number of embedding requests",
			},
			[]string{"provider", "status"},
		),
		EmbedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_request_duration_seconds",
				Help:      "Embedding request duration in seconds",
				Buckets:   []float64{0.005, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_requests_total",
				Help:      "Total number of searches",
			},
			[]string{"status"},
		),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   prometheus.LinearBuckets(0, 5, 6),
		}),
	}

	m.registry.MustRegister(
		m.FetchRequestsTotal,
		m.FetchDuration,
		m.EmbedRequestsTotal,
		m.EmbedDuration,
		m.SearchRequestsTotal,
		m.SearchDuration,
		m.SearchResults,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteFile writes the current values in the Prometheus text format.
// The file is written atomically, suitable for the node exporter textfile collector.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// status labels an outcome by its application error code.
func status(err error) string {
	if err == nil {
		return "ok"
	}
	return dockb.ErrorCode(err)
}

// fetchOutcome labels a fetch by the kind of its failure.
func fetchOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *dockb.FetchError
	if errors.As(err, &fe) {
		return string(fe.Kind)
	}
	return "error"
}
