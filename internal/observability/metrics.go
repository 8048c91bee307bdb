package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// harvest service.
type Metrics struct {
	RequestsConsumed prometheus.Counter
	RecordsProduced  prometheus.Counter
	HarvestErrors    *prometheus.CounterVec // labels: reason={invalid_request,read_failure,compute_failure}
	PipelineRunning  prometheus.Gauge

	HarvestDuration   prometheus.Histogram
	FilesPerRequest   prometheus.Histogram
	RecordsPerRequest prometheus.Histogram
	WeightsLoaded     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestsConsumed,
		m.RecordsProduced,
		m.HarvestErrors,
		m.PipelineRunning,
		m.HarvestDuration,
		m.FilesPerRequest,
		m.RecordsPerRequest,
		m.WeightsLoaded,
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
		RequestsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bfg_harvest",
			Name:      "requests_consumed_total",
			Help:      "Total harvest requests read from the request topic.",
		}),
		RecordsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bfg_harvest",
			Name:      "records_produced_total",
			Help:      "Total harvested records written to the record topic.",
		}),
		HarvestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bfg_harvest",
			Name:      "harvest_errors_total",
			Help:      "Harvest failures by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bfg_harvest",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		HarvestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bfg_harvest",
			Name:      "harvest_duration_seconds",
			Help:      "Duration of a complete harvest request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FilesPerRequest: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bfg_harvest",
			Name:      "files_per_request",
			Help:      "Number of input files read per harvest request.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		RecordsPerRequest: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bfg_harvest",
			Name:      "records_per_request",
			Help:      "Number of records produced per harvest request.",
			Buckets:   []float64{1, 4, 16, 64, 256, 1024},
		}),
		WeightsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bfg_harvest",
			Name:      "weights_loaded",
			Help:      "1 once the gridcell area grid has loaded successfully.",
		}),
	}
}
