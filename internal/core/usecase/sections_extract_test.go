package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/chipfilings/assistant/internal/core/domain"
)

type objectStorageFake struct {
	objects map[string][]byte
	saved   []string
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = raw
	f.saved = append(f.saved, key)
	return nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type filingRepoFake struct {
	filings  map[string]*domain.Filing
	statuses []domain.FilingStatus
}

func (f *filingRepoFake) Upsert(_ context.Context, filing *domain.Filing) error {
	if f.filings == nil {
		f.filings = make(map[string]*domain.Filing)
	}
	f.filings[filing.Company] = filing
	return nil
}

func (f *filingRepoFake) GetByCompany(_ context.Context, company string) (*domain.Filing, error) {
	filing, ok := f.filings[company]
	if !ok {
		return nil, domain.WrapError(domain.ErrFilingNotFound, "get filing", errors.New(company))
	}
	return filing, nil
}

func (f *filingRepoFake) UpdateStatus(_ context.Context, company string, status domain.FilingStatus, errMessage string, sectionCount int) error {
	f.statuses = append(f.statuses, status)
	if filing, ok := f.filings[company]; ok {
		filing.Status = status
		filing.Error = errMessage
		filing.SectionCount = sectionCount
	}
	return nil
}

func (f *filingRepoFake) List(context.Context) ([]domain.Filing, error) {
	var out []domain.Filing
	for _, filing := range f.filings {
		out = append(out, *filing)
	}
	return out, nil
}

type sectionsGeneratorFake struct {
	jsonResponses []string
	prompts       []string
}

func (f *sectionsGeneratorFake) GenerateAnswer(context.Context, string, []domain.RetrievedChunk) (string, error) {
	return "", nil
}
func (f *sectionsGeneratorFake) GenerateFromPrompt(context.Context, string) (string, error) {
	return "", nil
}
func (f *sectionsGeneratorFake) GenerateJSONFromPrompt(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.jsonResponses) == 0 {
		return "", errors.New("no scripted response")
	}
	out := f.jsonResponses[0]
	f.jsonResponses = f.jsonResponses[1:]
	return out, nil
}

func manyPagesText(pages int) string {
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		fmt.Fprintf(&b, "--- PAGE %d ---\npage body\n", i)
	}
	return b.String()
}

func TestSectionExtractProcessCompany(t *testing.T) {
	generator := &sectionsGeneratorFake{jsonResponses: []string{
		`{"sections":[{"section_name":"Item 1","section_title":"Business","start_page_number":1}]}`,
		`{"sections":[{"section_name":"Item 7","section_title":"MD&A","start_page_number":50}]}`,
		`{"sections":[
			{"section_name":"Item 1","section_title":"Business","start_page_number":1,"is_subsection":false},
			{"section_name":"Item 7","section_title":"MD&A","start_page_number":50,"is_subsection":false}
		]}`,
	}}
	storage := &objectStorageFake{}
	store := &sectionStoreFake{}
	repo := &filingRepoFake{}
	text := &textSourceFake{text: manyPagesText(60)}

	uc := NewSectionExtractUseCase(domain.DefaultRegistry(), text, storage, generator, store, repo, nil)
	if err := uc.ProcessCompany(context.Background(), "nvidia"); err != nil {
		t.Fatalf("ProcessCompany() error = %v", err)
	}

	if len(store.saved) != 2 {
		t.Fatalf("expected 2 sections saved, got %d", len(store.saved))
	}
	// Two 45-page blocks cached plus three model calls (two blocks, one hierarchy pass).
	if len(storage.saved) != 2 {
		t.Fatalf("expected 2 cached blocks, got %v", storage.saved)
	}
	if len(generator.prompts) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(generator.prompts))
	}
	want := []domain.FilingStatus{domain.FilingStatusExtracting, domain.FilingStatusReady}
	if len(repo.statuses) != 2 || repo.statuses[0] != want[0] || repo.statuses[1] != want[1] {
		t.Fatalf("statuses = %v, want %v", repo.statuses, want)
	}
}

func TestSectionExtractResumesFromBlockCache(t *testing.T) {
	storage := &objectStorageFake{objects: map[string][]byte{
		"sections/nvidia_10k/block_000.json": []byte(`[{"section_name":"Item 1","section_title":"Business","start_page_number":1}]`),
	}}
	generator := &sectionsGeneratorFake{jsonResponses: []string{
		`{"sections":[{"section_name":"Item 1","section_title":"Business","start_page_number":1,"is_subsection":false}]}`,
	}}
	store := &sectionStoreFake{}
	text := &textSourceFake{text: manyPagesText(10)}

	uc := NewSectionExtractUseCase(domain.DefaultRegistry(), text, storage, generator, store, &filingRepoFake{}, nil)
	if err := uc.ProcessCompany(context.Background(), "nvidia"); err != nil {
		t.Fatalf("ProcessCompany() error = %v", err)
	}
	// Only the hierarchy pass should hit the model.
	if len(generator.prompts) != 1 {
		t.Fatalf("expected cached block to skip extraction call, got %d calls", len(generator.prompts))
	}
}

type extractTelemetryFake struct {
	modelKinds []string
	cacheHits  int
	found      []int
}

func (f *extractTelemetryFake) ModelCalled(kind string) { f.modelKinds = append(f.modelKinds, kind) }
func (f *extractTelemetryFake) BlockCacheHit()          { f.cacheHits++ }
func (f *extractTelemetryFake) SectionsFound(count int) { f.found = append(f.found, count) }

func TestSectionExtractRecordsTelemetry(t *testing.T) {
	storage := &objectStorageFake{objects: map[string][]byte{
		"sections/nvidia_10k/block_000.json": []byte(`[{"section_name":"Item 1","section_title":"Business","start_page_number":1}]`),
	}}
	generator := &sectionsGeneratorFake{jsonResponses: []string{
		`{"sections":[{"section_name":"Item 1","section_title":"Business","start_page_number":1,"is_subsection":false}]}`,
	}}
	telemetry := &extractTelemetryFake{}
	text := &textSourceFake{text: manyPagesText(10)}

	uc := NewSectionExtractUseCase(domain.DefaultRegistry(), text, storage, generator, &sectionStoreFake{}, &filingRepoFake{}, telemetry)
	if err := uc.ProcessCompany(context.Background(), "nvidia"); err != nil {
		t.Fatalf("ProcessCompany() error = %v", err)
	}

	if telemetry.cacheHits != 1 {
		t.Fatalf("expected one cache hit, got %d", telemetry.cacheHits)
	}
	if len(telemetry.modelKinds) != 1 || telemetry.modelKinds[0] != "hierarchy" {
		t.Fatalf("expected only hierarchy model call recorded, got %v", telemetry.modelKinds)
	}
	if len(telemetry.found) != 1 || telemetry.found[0] != 1 {
		t.Fatalf("expected one sections-found observation, got %v", telemetry.found)
	}
}

func TestSectionExtractUnknownCompany(t *testing.T) {
	uc := NewSectionExtractUseCase(domain.DefaultRegistry(), &textSourceFake{}, &objectStorageFake{}, &sectionsGeneratorFake{}, &sectionStoreFake{}, &filingRepoFake{}, nil)

	err := uc.ProcessCompany(context.Background(), "tesla")
	if !domain.IsKind(err, domain.ErrCompanyUnknown) {
		t.Fatalf("expected unknown company error, got %v", err)
	}
}

func TestSectionExtractMarksFailureStatus(t *testing.T) {
	repo := &filingRepoFake{}
	generator := &sectionsGeneratorFake{} // no scripted responses: extraction fails
	text := &textSourceFake{text: manyPagesText(5)}

	uc := NewSectionExtractUseCase(domain.DefaultRegistry(), text, &objectStorageFake{}, generator, &sectionStoreFake{}, repo, nil)
	if err := uc.ProcessCompany(context.Background(), "nvidia"); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statuses) != 2 || repo.statuses[1] != domain.FilingStatusFailed {
		t.Fatalf("expected failed status, got %v", repo.statuses)
	}
}

func TestSplitPages(t *testing.T) {
	entries := splitPages("--- PAGE 1 ---\nfirst\n--- PAGE 2 ---\nsecond")
	if len(entries) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(entries))
	}
	if entries[0].Number != 1 || entries[0].Text != "first" {
		t.Fatalf("unexpected first page %+v", entries[0])
	}
	if entries[1].Number != 2 || entries[1].Text != "second" {
		t.Fatalf("unexpected second page %+v", entries[1])
	}

	unmarked := splitPages("no markers here")
	if len(unmarked) != 1 || unmarked[0].Number != 1 {
		t.Fatalf("expected unmarked text on page 1, got %+v", unmarked)
	}

	if splitPages("   ") != nil {
		t.Fatalf("expected nil for blank text")
	}
}
