package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	modelCallsTotal *prometheus.CounterVec
	cacheHitsTotal  *prometheus.CounterVec
	sectionsFound   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "worker",
			Name:      "filing_process_total",
			Help:      "Total processed section-extraction jobs by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "worker",
			Name:      "filing_process_duration_seconds",
			Help:      "Section-extraction duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sfa",
			Subsystem: "worker",
			Name:      "filing_process_in_flight",
			Help:      "Number of in-flight section-extraction jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	modelCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "worker",
			Name:      "model_calls_total",
			Help:      "Total model completions issued during extraction.",
		},
		[]string{"service", "kind"},
	)
	cacheHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "worker",
			Name:      "block_cache_hits_total",
			Help:      "Total page blocks served from the extraction cache.",
		},
		[]string{"service"},
	)
	sectionsFound := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "worker",
			Name:      "sections_found",
			Help:      "Distribution of sections found per filing.",
			Buckets:   []float64{0, 5, 10, 20, 40, 80, 160},
		},
		[]string{"service"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, modelCallsTotal, cacheHitsTotal, sectionsFound)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		modelCallsTotal: modelCallsTotal,
		cacheHitsTotal:  cacheHitsTotal,
		sectionsFound:   sectionsFound,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartFiling() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishFiling(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordModelCall(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.modelCallsTotal.WithLabelValues(service, kind).Inc()
}

func (m *WorkerMetrics) RecordCacheHit(service string) {
	m.cacheHitsTotal.WithLabelValues(service).Inc()
}

func (m *WorkerMetrics) RecordSectionsFound(service string, count int) {
	m.sectionsFound.WithLabelValues(service).Observe(float64(count))
}
