package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// pipeline stages and the dashboard. Batch stages update them for their run;
// the dashboard server is the one surface that exposes them over /metrics.
type Metrics struct {
	// Fetch stage.
	PagesFetched  prometheus.Counter
	RowsFetched   prometheus.Counter
	PageDuration  prometheus.Histogram
	FetchFailures prometheus.Counter

	// Clean stage.
	RowsCleaned        prometheus.Counter
	RowsDropped        *prometheus.CounterVec // labels: reason={timestamp,station_id}
	RidershipDefaulted prometheus.Counter
	RidershipClamped   prometheus.Counter

	// Load stage.
	RowsLoaded    prometheus.Counter
	BatchesLoaded prometheus.Counter
	LoadDuration  prometheus.Histogram

	// Dashboard queries.
	QueryDuration *prometheus.HistogramVec // labels: query={daily,forecast,stations}
	QueryErrors   *prometheus.CounterVec   // labels: query
	QueryCache    *prometheus.CounterVec   // labels: query, result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PagesFetched,
		m.RowsFetched,
		m.PageDuration,
		m.FetchFailures,
		m.RowsCleaned,
		m.RowsDropped,
		m.RidershipDefaulted,
		m.RidershipClamped,
		m.RowsLoaded,
		m.BatchesLoaded,
		m.LoadDuration,
		m.QueryDuration,
		m.QueryErrors,
		m.QueryCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "pages_fetched_total",
			Help:      "Total pages requested from the Socrata endpoint.",
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "rows_fetched_total",
			Help:      "Total raw rows downloaded.",
		}),
		PageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ridership_etl",
			Name:      "page_duration_seconds",
			Help:      "Duration of a single page request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "fetch_failures_total",
			Help:      "Total aborted fetch runs.",
		}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "rows_cleaned_total",
			Help:      "Total rows surviving cleaning.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "rows_dropped_total",
			Help:      "Rows dropped during cleaning by reason.",
		}, []string{"reason"}),
		RidershipDefaulted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "ridership_defaulted_total",
			Help:      "Rows whose ridership value was unparseable and defaulted to zero.",
		}),
		RidershipClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "ridership_clamped_total",
			Help:      "Rows whose negative ridership value was clamped to zero.",
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "rows_loaded_total",
			Help:      "Total rows inserted into the staging table.",
		}),
		BatchesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "batches_loaded_total",
			Help:      "Total insert batches executed.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ridership_etl",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete replace-load run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ridership_etl",
			Name:      "query_duration_seconds",
			Help:      "Dashboard query duration by query name.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"query"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "query_errors_total",
			Help:      "Dashboard query failures by query name.",
		}, []string{"query"}),
		QueryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ridership_etl",
			Name:      "query_cache_total",
			Help:      "Dashboard query cache lookups by query name and result.",
		}, []string{"query", "result"}),
	}
}
