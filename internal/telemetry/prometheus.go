package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
)

// Metrics holds the node's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	fetchLatency  *prometheus.HistogramVec
	fetchFailures *prometheus.CounterVec
	searches      *prometheus.CounterVec
	searchLatency prometheus.Histogram
	liveContexts  prometheus.Gauge
	sweepPasses   prometheus.Counter
	sweptContexts prometheus.Counter
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seekr_backend_fetch_seconds",
			Help:    "Latency of backend page fetches, retries included.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
		}, []string{"backend", "status"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seekr_backend_fetch_failures_total",
			Help: "Failed backend page fetches by error code.",
		}, []string{"backend", "code"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seekr_searches_total",
			Help: "Searches served, by outcome.",
		}, []string{"outcome"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "seekr_search_seconds",
			Help:    "End-to-end search latency.",
			Buckets: prometheus.DefBuckets,
		}),
		liveContexts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seekr_query_contexts",
			Help: "Live query contexts.",
		}),
		sweepPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seekr_sweep_passes_total",
			Help: "Sweeper passes run.",
		}),
		sweptContexts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seekr_swept_contexts_total",
			Help: "Idle query contexts reclaimed by the sweeper.",
		}),
	}

	m.registry.MustRegister(
		m.fetchLatency,
		m.fetchFailures,
		m.searches,
		m.searchLatency,
		m.liveContexts,
		m.sweepPasses,
		m.sweptContexts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch implements fetch.Observer.
func (m *Metrics) ObserveFetch(backend string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
		m.fetchFailures.WithLabelValues(backend, errorCode(err)).Inc()
	}
	m.fetchLatency.WithLabelValues(backend, status).Observe(elapsed.Seconds())
}

// ObserveSearch records one search and how it ended.
func (m *Metrics) ObserveSearch(elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errorCode(err)
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchLatency.Observe(elapsed.Seconds())
}

// SetLiveContexts publishes the registry size.
func (m *Metrics) SetLiveContexts(n int) { m.liveContexts.Set(float64(n)) }

// ObserveSweep records one sweeper pass.
func (m *Metrics) ObserveSweep(released int) {
	m.sweepPasses.Inc()
	m.sweptContexts.Add(float64(released))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server exposing /metrics on addr.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}

func errorCode(err error) string {
	if code := serrors.GetCode(err); code != "" {
		return code
	}
	return "unknown"
}
