package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	routeDecisionsTotal  *prometheus.CounterVec
	retrievalHitTotal    *prometheus.CounterVec
	retrievalNoContext   *prometheus.CounterVec
	retrievedChunks      *prometheus.HistogramVec
	answerDuration       *prometheus.HistogramVec
	agentRunsTotal       *prometheus.CounterVec
	agentIterations      *prometheus.HistogramVec
	agentToolCallsTotal  *prometheus.CounterVec
	webSearchTotal       *prometheus.CounterVec
	extractRequestsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sfa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	routeDecisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "routing",
			Name:      "decisions_total",
			Help:      "Total routed questions by chosen tool.",
		},
		[]string{"service", "route"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total answered questions with at least one retrieved source.",
		},
		[]string{"service", "route"},
	)
	retrievalNoContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total answered questions without retrieved sources.",
		},
		[]string{"service", "route"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "retrieval",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per answered question.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "route"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "answer",
			Name:      "duration_seconds",
			Help:      "End-to-end answer generation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "route"},
	)
	agentRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "agent",
			Name:      "runs_total",
			Help:      "Total completed agent runs by status.",
		},
		[]string{"service", "status"},
	)
	agentIterations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sfa",
			Subsystem: "agent",
			Name:      "iterations",
			Help:      "Distribution of agent loop iterations per run.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"service"},
	)
	agentToolCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "agent",
			Name:      "tool_calls_total",
			Help:      "Total tool calls performed by the agent.",
		},
		[]string{"service", "tool", "status"},
	)
	webSearchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "websearch",
			Name:      "requests_total",
			Help:      "Total live web searches by outcome.",
		},
		[]string{"service", "status"},
	)
	extractRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sfa",
			Subsystem: "filings",
			Name:      "extract_requests_total",
			Help:      "Total section-extraction jobs requested over HTTP.",
		},
		[]string{"service", "company"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		routeDecisionsTotal,
		retrievalHitTotal,
		retrievalNoContext,
		retrievedChunks,
		answerDuration,
		agentRunsTotal,
		agentIterations,
		agentToolCallsTotal,
		webSearchTotal,
		extractRequestsTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		routeDecisionsTotal:  routeDecisionsTotal,
		retrievalHitTotal:    retrievalHitTotal,
		retrievalNoContext:   retrievalNoContext,
		retrievedChunks:      retrievedChunks,
		answerDuration:       answerDuration,
		agentRunsTotal:       agentRunsTotal,
		agentIterations:      agentIterations,
		agentToolCallsTotal:  agentToolCallsTotal,
		webSearchTotal:       webSearchTotal,
		extractRequestsTotal: extractRequestsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/filings/") && strings.HasSuffix(path, "/sections"):
		return "/v1/filings/{company}/sections"
	case strings.HasPrefix(path, "/v1/filings/"):
		return "/v1/filings/{company}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordRouteDecision(service, route string) {
	if route == "" {
		route = "unknown"
	}
	m.routeDecisionsTotal.WithLabelValues(service, route).Inc()
}

func (m *HTTPServerMetrics) RecordAnswer(service, route string, sourceCount int, duration time.Duration) {
	m.retrievedChunks.WithLabelValues(service, route).Observe(float64(sourceCount))
	m.answerDuration.WithLabelValues(service, route).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.retrievalHitTotal.WithLabelValues(service, route).Inc()
		return
	}
	m.retrievalNoContext.WithLabelValues(service, route).Inc()
}

func (m *HTTPServerMetrics) RecordAgentRun(service, status string, iterations int) {
	if status == "" {
		status = "unknown"
	}
	m.agentRunsTotal.WithLabelValues(service, status).Inc()
	if iterations > 0 {
		m.agentIterations.WithLabelValues(service).Observe(float64(iterations))
	}
}

func (m *HTTPServerMetrics) RecordAgentToolCall(service, tool, status string) {
	if tool == "" {
		tool = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.agentToolCallsTotal.WithLabelValues(service, tool, status).Inc()
}

func (m *HTTPServerMetrics) RecordWebSearch(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.webSearchTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordExtractRequest(service, company string) {
	if company == "" {
		company = "unknown"
	}
	m.extractRequestsTotal.WithLabelValues(service, company).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
