package httpadapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	"github.com/chipfilings/assistant/internal/core/domain"
)

const openapiSpecPath = "../../../api/openapi.yaml"

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openapiSpecPath)
	if err != nil {
		t.Fatalf("load openapi spec: %v", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		t.Fatalf("validate openapi spec: %v", err)
	}
	return doc
}

func TestOpenAPISpecCoversServedRoutes(t *testing.T) {
	doc := loadSpec(t)

	for _, path := range []string{
		"/healthz",
		"/v1/ask",
		"/v1/filings",
		"/v1/filings/{company}",
		"/v1/filings/{company}/sections",
	} {
		if doc.Paths.Find(path) == nil {
			t.Fatalf("path %s missing from spec", path)
		}
	}
	if doc.Paths.Find("/v1/ask").Post == nil {
		t.Fatalf("POST /v1/ask missing from spec")
	}
	if doc.Paths.Find("/v1/filings").Get == nil {
		t.Fatalf("GET /v1/filings missing from spec")
	}
	if doc.Paths.Find("/v1/filings/{company}").Get == nil {
		t.Fatalf("GET /v1/filings/{company} missing from spec")
	}
	if doc.Paths.Find("/v1/filings/{company}/sections").Post == nil {
		t.Fatalf("POST /v1/filings/{company}/sections missing from spec")
	}
}

func TestAskResponseMatchesContract(t *testing.T) {
	doc := loadSpec(t)
	specRouter, err := legacyrouter.NewRouter(doc)
	if err != nil {
		t.Fatalf("build spec router: %v", err)
	}

	ask := &questionServiceFake{answer: &domain.Answer{
		Text:  "Intel's data center revenue declined.",
		Route: domain.RouteComparison,
		Sources: []domain.RetrievedChunk{
			{ID: "c1", SourceFile: "intel_10k.pdf", Text: "chunk", Score: 0.8, PageNumber: 41, Section: "Item 7"},
			{ID: "c2", SourceFile: "amd_10k.pdf", Text: "chunk", Score: 0.7},
		},
	}}
	handler := newTestHandler(ask, &filingServiceFake{})

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"Compare Intel and AMD revenue"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	route, pathParams, err := specRouter.FindRoute(req)
	if err != nil {
		t.Fatalf("find route: %v", err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: res.Code,
		Header: res.Header(),
	}
	input.SetBodyBytes(res.Body.Bytes())

	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Fatalf("response violates contract: %v", err)
	}
}

func TestFilingResponseMatchesContract(t *testing.T) {
	doc := loadSpec(t)
	specRouter, err := legacyrouter.NewRouter(doc)
	if err != nil {
		t.Fatalf("build spec router: %v", err)
	}

	filings := &filingServiceFake{filing: &domain.Filing{
		Company:    "broadcom",
		SourceFile: "broadcom_10k.pdf",
		Status:     domain.FilingStatusRegistered,
	}}
	handler := newTestHandler(&questionServiceFake{}, filings)

	req := httptest.NewRequest(http.MethodGet, "/v1/filings/broadcom", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	route, pathParams, err := specRouter.FindRoute(req)
	if err != nil {
		t.Fatalf("find route: %v", err)
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status: res.Code,
		Header: res.Header(),
	}
	input.SetBodyBytes(res.Body.Bytes())

	if err := openapi3filter.ValidateResponse(context.Background(), input); err != nil {
		t.Fatalf("response violates contract: %v", err)
	}
}
