package mcpadapter

import (
	"context"
	"testing"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/usecase"
)

type embedderFake struct{}

func (f embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func (f embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type vectorFake struct {
	filters []domain.SearchFilter
	limits  []int
}

func (f *vectorFake) Search(_ context.Context, _ []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error) {
	f.filters = append(f.filters, filter)
	f.limits = append(f.limits, limit)
	source := filter.SourceFile
	if source == "" {
		source = "any_10k.pdf"
	}
	return []domain.RetrievedChunk{
		{ID: source + "-1", SourceFile: source, Text: "chunk", Score: 0.9},
	}, nil
}

func (f *vectorFake) FetchByFilter(context.Context, domain.SearchFilter, int) ([]domain.VectorRecord, error) {
	return nil, nil
}

func (f *vectorFake) UpdateMetadata(context.Context, string, domain.MetadataUpdate) error {
	return nil
}

func (f *vectorFake) DeleteByFilter(context.Context, domain.SearchFilter) error {
	return nil
}

func (f *vectorFake) DeleteAll(context.Context) error {
	return nil
}

func (f *vectorFake) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

type generatorFake struct{}

func (f generatorFake) GenerateAnswer(context.Context, string, []domain.RetrievedChunk) (string, error) {
	return "answer", nil
}

func (f generatorFake) GenerateFromPrompt(context.Context, string) (string, error) {
	return "answer", nil
}

func (f generatorFake) GenerateJSONFromPrompt(context.Context, string) (string, error) {
	return "{}", nil
}

type webFake struct {
	queries []string
}

func (f *webFake) Search(_ context.Context, query string) (*domain.WebSearchResponse, error) {
	f.queries = append(f.queries, query)
	return &domain.WebSearchResponse{
		Answer:  "web summary",
		Results: []domain.WebResult{{Title: "t", URL: "https://example.com", Content: "c"}},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *vectorFake, *webFake) {
	t.Helper()
	vector := &vectorFake{}
	web := &webFake{}
	query := usecase.NewQueryUseCase(embedderFake{}, vector, generatorFake{}, 5, 0)
	compare := usecase.NewCompareUseCase(embedderFake{}, vector, generatorFake{}, 2)

	server, err := NewServer(Deps{
		Registry: domain.DefaultRegistry(),
		Query:    query,
		Compare:  compare,
		Web:      web,
		TopK:     5,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server, vector, web
}

func TestFilingSearchScopesToCompanyFiling(t *testing.T) {
	server, vector, _ := newTestServer(t)

	_, output, err := server.handleFilingSearch(context.Background(), nil, FilingSearchInput{
		Query:   "data center revenue",
		Company: "nvidia",
	})
	if err != nil {
		t.Fatalf("handleFilingSearch: %v", err)
	}
	if output.Count != 1 {
		t.Fatalf("expected 1 chunk, got %d", output.Count)
	}
	if len(vector.filters) != 1 || vector.filters[0].SourceFile != "nvidia_10k.pdf" {
		t.Fatalf("expected nvidia_10k.pdf filter, got %+v", vector.filters)
	}
	if vector.limits[0] != 5 {
		t.Fatalf("expected default limit 5, got %d", vector.limits[0])
	}
}

func TestFilingSearchRejectsUnknownCompany(t *testing.T) {
	server, vector, _ := newTestServer(t)

	_, _, err := server.handleFilingSearch(context.Background(), nil, FilingSearchInput{
		Query:   "revenue",
		Company: "rivian",
	})
	if !domain.IsKind(err, domain.ErrCompanyUnknown) {
		t.Fatalf("expected unknown-company kind, got %v", err)
	}
	if len(vector.filters) != 0 {
		t.Fatalf("expected no retrieval for unknown company")
	}
}

func TestFilingSearchWithoutCompanySearchesUnfiltered(t *testing.T) {
	server, vector, _ := newTestServer(t)

	_, _, err := server.handleFilingSearch(context.Background(), nil, FilingSearchInput{
		Query: "supply chain risk",
	})
	if err != nil {
		t.Fatalf("handleFilingSearch: %v", err)
	}
	if len(vector.filters) != 1 || vector.filters[0].SourceFile != "" {
		t.Fatalf("expected unfiltered search, got %+v", vector.filters)
	}
}

func TestIndustryComparisonDefaultsToAllCompanies(t *testing.T) {
	server, vector, _ := newTestServer(t)

	_, output, err := server.handleIndustryComparison(context.Background(), nil, IndustryComparisonInput{
		Query: "compare R&D spending",
	})
	if err != nil {
		t.Fatalf("handleIndustryComparison: %v", err)
	}
	if len(vector.filters) != 4 {
		t.Fatalf("expected one search per tracked company, got %d", len(vector.filters))
	}
	if output.Count != 4 {
		t.Fatalf("expected 4 chunks, got %d", output.Count)
	}
}

func TestIndustryComparisonWithNamedCompanies(t *testing.T) {
	server, vector, _ := newTestServer(t)

	_, _, err := server.handleIndustryComparison(context.Background(), nil, IndustryComparisonInput{
		Query:     "compare margins",
		Companies: []string{"intel", "amd"},
	})
	if err != nil {
		t.Fatalf("handleIndustryComparison: %v", err)
	}
	if len(vector.filters) != 2 {
		t.Fatalf("expected 2 searches, got %d", len(vector.filters))
	}
	if vector.filters[0].SourceFile != "intel_10k.pdf" || vector.filters[1].SourceFile != "amd_10k.pdf" {
		t.Fatalf("unexpected filters: %+v", vector.filters)
	}
}

func TestWebSearchToolReturnsAnswerAndResults(t *testing.T) {
	server, _, web := newTestServer(t)

	_, output, err := server.handleWebSearch(context.Background(), nil, WebSearchInput{
		Query: "latest NVIDIA earnings",
	})
	if err != nil {
		t.Fatalf("handleWebSearch: %v", err)
	}
	if output.Answer != "web summary" {
		t.Fatalf("expected web summary answer, got %q", output.Answer)
	}
	if len(output.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(output.Results))
	}
	if len(web.queries) != 1 || web.queries[0] != "latest NVIDIA earnings" {
		t.Fatalf("unexpected queries: %v", web.queries)
	}
}

func TestToolsRejectEmptyQuery(t *testing.T) {
	server, _, _ := newTestServer(t)

	if _, _, err := server.handleFilingSearch(context.Background(), nil, FilingSearchInput{}); err == nil {
		t.Fatalf("expected error for empty filing_search query")
	}
	if _, _, err := server.handleIndustryComparison(context.Background(), nil, IndustryComparisonInput{}); err == nil {
		t.Fatalf("expected error for empty industry_comparison query")
	}
	if _, _, err := server.handleWebSearch(context.Background(), nil, WebSearchInput{}); err == nil {
		t.Fatalf("expected error for empty web_search query")
	}
}
