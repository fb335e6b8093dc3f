package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// submission pipeline and the export/import runs.
type Metrics struct {
	SubmissionsConsumed prometheus.Counter
	ReportsEnqueued     prometheus.Counter
	SubmissionsSampled  *prometheus.CounterVec // labels: result={stored,dropped}
	ParseErrors         prometheus.Counter
	PipelineRunning     prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// KeyLookups counts sampling-config lookups by result={hit,miss,unknown}.
	KeyLookups *prometheus.CounterVec

	// Export run metrics.
	ExportRows           *prometheus.CounterVec // labels: table, shard
	ExportRuns           *prometheus.CounterVec // labels: table, kind, outcome={ok,partial,error}
	ExportUploadFailures prometheus.Counter
	ExportRunDuration    prometheus.Histogram

	// Import run metrics.
	ImportRowsMerged  prometheus.Counter
	ImportRowsSkipped prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.SubmissionsConsumed,
		m.ReportsEnqueued,
		m.SubmissionsSampled,
		m.ParseErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.KeyLookups,
		m.ExportRows,
		m.ExportRuns,
		m.ExportUploadFailures,
		m.ExportRunDuration,
		m.ImportRowsMerged,
		m.ImportRowsSkipped,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SubmissionsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "submissions_consumed_total",
			Help:      "Total raw submission envelopes read from the source topic.",
		}),
		ReportsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "reports_enqueued_total",
			Help:      "Total normalized reports written to the update_incoming topic.",
		}),
		SubmissionsSampled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "submissions_sampled_total",
			Help:      "Sampling gate decisions by result.",
		}, []string{"result"}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "parse_errors_total",
			Help:      "Total submissions rejected during schema normalization.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stationpipe",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stationpipe",
			Name:      "batch_size",
			Help:      "Number of submissions per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stationpipe",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch normalize-admit-enqueue cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		KeyLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "key_lookups_total",
			Help:      "API key sampling-config lookups by result.",
		}, []string{"result"}),
		ExportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "export_rows_total",
			Help:      "Station rows exported by table and shard.",
		}, []string{"table", "shard"}),
		ExportRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "export_runs_total",
			Help:      "Export runs by table, window kind, and outcome.",
		}, []string{"table", "kind", "outcome"}),
		ExportUploadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "export_upload_failures_total",
			Help:      "Shard file uploads that failed.",
		}),
		ExportRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stationpipe",
			Name:      "export_run_duration_seconds",
			Help:      "Duration of a complete export run across all shards.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		ImportRowsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "import_rows_merged_total",
			Help:      "Delta rows upserted into the canonical store.",
		}),
		ImportRowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stationpipe",
			Name:      "import_rows_skipped_total",
			Help:      "Delta rows skipped as malformed.",
		}),
	}
}
