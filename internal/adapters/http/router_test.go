package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chipfilings/assistant/internal/config"
	"github.com/chipfilings/assistant/internal/core/domain"
)

type questionServiceFake struct {
	answer   *domain.Answer
	err      error
	question string
	topK     int
}

func (f *questionServiceFake) Ask(_ context.Context, question string, topK int) (*domain.Answer, error) {
	f.question = question
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type filingServiceFake struct {
	filing     *domain.Filing
	filings    []domain.Filing
	getErr     error
	extractErr error
	requested  []string
}

func (f *filingServiceFake) GetByCompany(_ context.Context, company string) (*domain.Filing, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.filing, nil
}

func (f *filingServiceFake) List(context.Context) ([]domain.Filing, error) {
	return f.filings, nil
}

func (f *filingServiceFake) RequestSectionExtract(_ context.Context, company string) error {
	f.requested = append(f.requested, company)
	return f.extractErr
}

func newTestHandler(ask *questionServiceFake, filings *filingServiceFake) http.Handler {
	cfg := config.Config{RAGTopK: 5}
	return NewRouter(cfg, ask, filings, nil).Handler()
}

func TestAskReturnsAnswerWithRouteAndSources(t *testing.T) {
	ask := &questionServiceFake{answer: &domain.Answer{
		Text:  "NVIDIA's revenue grew.",
		Route: domain.RouteFiling,
		Sources: []domain.RetrievedChunk{
			{ID: "c1", SourceFile: "nvidia_10k.pdf", Text: "chunk", Score: 0.9},
		},
	}}
	handler := newTestHandler(ask, &filingServiceFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"What drove NVIDIA revenue?"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var answer domain.Answer
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Route != domain.RouteFiling {
		t.Fatalf("expected filing route, got %s", answer.Route)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].SourceFile != "nvidia_10k.pdf" {
		t.Fatalf("unexpected sources: %+v", answer.Sources)
	}
	if ask.topK != 5 {
		t.Fatalf("expected default top_k 5, got %d", ask.topK)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	handler := newTestHandler(&questionServiceFake{}, &filingServiceFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAskMapsDomainErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("bad")), http.StatusBadRequest},
		{"unknown company", domain.WrapError(domain.ErrCompanyUnknown, "ask", errors.New("rivian")), http.StatusBadRequest},
		{"unauthorized", domain.WrapError(domain.ErrUnauthorized, "ask", errors.New("key")), http.StatusUnauthorized},
		{"temporary", domain.WrapError(domain.ErrTemporary, "ask", errors.New("503")), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(&questionServiceFake{err: tc.err}, &filingServiceFake{})

			req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`))
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestAskStreamsSSEWhenRequested(t *testing.T) {
	ask := &questionServiceFake{answer: &domain.Answer{
		Text:  "streamed answer text",
		Route: domain.RouteWeb,
	}}
	handler := newTestHandler(ask, &filingServiceFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"latest news","stream":true}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected event-stream content type, got %q", ct)
	}
	body := res.Body.String()
	if !strings.Contains(body, `"delta":"streamed answer text"`) {
		t.Fatalf("expected delta event in body:\n%s", body)
	}
	if !strings.Contains(body, `"route":"web"`) {
		t.Fatalf("expected final route event in body:\n%s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]") {
		t.Fatalf("expected [DONE] sentinel at end of stream:\n%s", body)
	}
}

func TestGetFilingByCompany(t *testing.T) {
	filings := &filingServiceFake{filing: &domain.Filing{
		Company:    "nvidia",
		SourceFile: "nvidia_10k.pdf",
		Status:     domain.FilingStatusReady,
	}}
	handler := newTestHandler(&questionServiceFake{}, filings)

	req := httptest.NewRequest(http.MethodGet, "/v1/filings/nvidia", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var filing domain.Filing
	if err := json.NewDecoder(res.Body).Decode(&filing); err != nil {
		t.Fatalf("decode filing: %v", err)
	}
	if filing.Status != domain.FilingStatusReady {
		t.Fatalf("expected sections_ready, got %s", filing.Status)
	}
}

func TestListFilings(t *testing.T) {
	filings := &filingServiceFake{filings: []domain.Filing{
		{Company: "amd", SourceFile: "amd_10k.pdf", Status: domain.FilingStatusReady},
		{Company: "nvidia", SourceFile: "nvidia_10k.pdf", Status: domain.FilingStatusRegistered},
	}}
	handler := newTestHandler(&questionServiceFake{}, filings)

	req := httptest.NewRequest(http.MethodGet, "/v1/filings", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var got []domain.Filing
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode filings: %v", err)
	}
	if len(got) != 2 || got[0].Company != "amd" {
		t.Fatalf("unexpected filings: %+v", got)
	}
}

func TestListFilingsEmptyIsJSONArray(t *testing.T) {
	handler := newTestHandler(&questionServiceFake{}, &filingServiceFake{})

	req := httptest.NewRequest(http.MethodGet, "/v1/filings", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if body := strings.TrimSpace(res.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %q", body)
	}
}

func TestGetFilingUnknownCompanyReturns400(t *testing.T) {
	filings := &filingServiceFake{getErr: domain.WrapError(domain.ErrCompanyUnknown, "get filing", errors.New("rivian"))}
	handler := newTestHandler(&questionServiceFake{}, filings)

	req := httptest.NewRequest(http.MethodGet, "/v1/filings/rivian", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRequestSectionExtractQueuesJob(t *testing.T) {
	filings := &filingServiceFake{}
	handler := newTestHandler(&questionServiceFake{}, filings)

	req := httptest.NewRequest(http.MethodPost, "/v1/filings/amd/sections", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if len(filings.requested) != 1 || filings.requested[0] != "amd" {
		t.Fatalf("expected extract request for amd, got %v", filings.requested)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "queued" {
		t.Fatalf("expected queued status, got %q", resp["status"])
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := newTestHandler(&questionServiceFake{}, &filingServiceFake{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("expected request id echoed, got %q", res.Header().Get(requestIDHeader))
	}
}
