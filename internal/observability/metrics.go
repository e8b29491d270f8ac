package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons used as the label on LinesSkipped.
const (
	SkipReasonParse       = "parse"
	SkipReasonTemperature = "temperature"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// observation pipeline.
type Metrics struct {
	LinesRead         prometheus.Counter
	LinesSkipped      *prometheus.CounterVec // labels: reason={parse,temperature}
	RecordsAggregated prometheus.Counter
	PipelineRunning   prometheus.Gauge
	RunDuration       prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.LinesRead,
		m.LinesSkipped,
		m.RecordsAggregated,
		m.PipelineRunning,
		m.RunDuration,
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
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_stats",
			Name:      "lines_read_total",
			Help:      "Total lines read from the observation log.",
		}),
		LinesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_stats",
			Name:      "lines_skipped_total",
			Help:      "Lines discarded without aborting the run, by reason.",
		}, []string{"reason"}),
		RecordsAggregated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_stats",
			Name:      "records_aggregated_total",
			Help:      "Normalized records folded into flight statistics.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_stats",
			Name:      "pipeline_running",
			Help:      "1 while an aggregation run is active, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_stats",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete parse-normalize-aggregate run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}
}
