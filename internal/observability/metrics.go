package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_hydrology"

// Metrics holds the Prometheus counters, histograms, and gauges for the hydrology service.
type Metrics struct {
	// HTTP metrics.
	HTTPRequests        *prometheus.CounterVec   // labels: route, method, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: route, method

	// Record metrics.
	RecordsWritten     *prometheus.CounterVec // labels: kind, op
	ValidationFailures *prometheus.CounterVec // labels: kind
	SeriesSynthesized  prometheus.Counter
	SynthesizedPoints  prometheus.Histogram

	// Change feed metrics.
	ChangeEvents           *prometheus.CounterVec // labels: outcome={published,failed,disabled}
	ChangeFeedRunning      prometheus.Gauge
	ChangeFeedQueueDepth   prometheus.Gauge
	ChangeFeedBatchSize    prometheus.Histogram
	ChangeFeedFlushSeconds prometheus.Histogram
	ChangeFeedDelivered    *prometheus.CounterVec // labels: outcome={delivered,retried,dropped}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.RecordsWritten,
		m.ValidationFailures,
		m.SeriesSynthesized,
		m.SynthesizedPoints,
		m.ChangeEvents,
		m.ChangeFeedRunning,
		m.ChangeFeedQueueDepth,
		m.ChangeFeedBatchSize,
		m.ChangeFeedFlushSeconds,
		m.ChangeFeedDelivered,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      help("API requests by route pattern, method and status code."),
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      help("API request latency by route pattern and method."),
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      help("Committed record mutations by record kind and operation."),
		}, []string{"kind", "op"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      help("Rejected writes by record kind."),
		}, []string{"kind"}),
		SeriesSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_synthesized_total",
			Help:      help("Time series derived from IDF tables and temporal patterns."),
		}),
		SynthesizedPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesized_points",
			Help:      help("Number of points per synthesized series."),
			Buckets:   []float64{2, 5, 10, 25, 50, 100, 250, 500},
		}),
		ChangeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      help("Record change events by publish outcome."),
		}, []string{"outcome"}),
		ChangeFeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_feed_running",
			Help:      help("1 while the change feed relay is running, 0 otherwise."),
		}),
		ChangeFeedQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "change_feed_queue_depth",
			Help:      help("Change events waiting to be delivered."),
		}),
		ChangeFeedBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "change_feed_batch_size",
			Help:      help("Number of change events per delivered batch."),
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		ChangeFeedFlushSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "change_feed_flush_duration_seconds",
			Help:      help("Time to deliver one batch of change events."),
			Buckets:   prometheus.DefBuckets,
		}),
		ChangeFeedDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_feed_events_total",
			Help:      help("Change events leaving the relay by outcome."),
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by method and outcome."),
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by method and result."),
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when geocoding enrichment is enabled, 0 otherwise."),
		}),
	}
}
