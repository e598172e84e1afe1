package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/chipfilings/assistant/internal/config"
	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
	"github.com/chipfilings/assistant/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg      config.Config
	askUC    ports.QuestionService
	filingUC ports.FilingService
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	askUC ports.QuestionService,
	filingUC ports.FilingService,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		askUC:    askUC,
		filingUC: filingUC,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/filings", rt.listFilings)
	mux.HandleFunc("/v1/filings/", rt.filings)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, time.Duration(rt.cfg.BackpressureWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
	Stream   bool   `json:"stream"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = rt.cfg.RAGTopK
	}

	start := time.Now()
	answer, err := rt.askUC.Ask(r.Context(), req.Question, topK)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRouteDecision(serviceName, string(answer.Route))
		rt.metrics.RecordAnswer(serviceName, string(answer.Route), len(answer.Sources), time.Since(start))
	}

	if req.Stream {
		if err := writeAnswerSSE(w, answer); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) listFilings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	filings, err := rt.filingUC.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if filings == nil {
		filings = []domain.Filing{}
	}
	writeJSON(w, http.StatusOK, filings)
}

func (rt *Router) filings(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/filings/"), "/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company is required"})
		return
	}

	company, tail, _ := strings.Cut(rest, "/")
	switch {
	case tail == "" && r.Method == http.MethodGet:
		rt.getFiling(w, r, company)
	case tail == "sections" && r.Method == http.MethodPost:
		rt.requestSectionExtract(w, r, company)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) getFiling(w http.ResponseWriter, r *http.Request, company string) {
	filing, err := rt.filingUC.GetByCompany(r.Context(), company)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, filing)
}

func (rt *Router) requestSectionExtract(w http.ResponseWriter, r *http.Request, company string) {
	if err := rt.filingUC.RequestSectionExtract(r.Context(), company); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordExtractRequest(serviceName, company)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"company": company,
		"status":  "queued",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
