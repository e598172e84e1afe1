package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

const sectionBlockPages = 45

var pageMarkerRe = regexp.MustCompile(`--- PAGE (\d+) ---`)

// rawSection is a single heading as the first extraction pass reports it,
// before the hierarchy pass decides main sections versus subsections.
type rawSection struct {
	SectionName     string `json:"section_name"`
	SectionTitle    string `json:"section_title"`
	StartPageNumber int    `json:"start_page_number"`
}

// SectionExtractUseCase builds a filing's section index in two model passes:
// per-block heading extraction over 45-page windows, then a single hierarchy
// pass over all headings. Block results are cached so an interrupted run
// resumes without repeating finished blocks.
type SectionExtractUseCase struct {
	registry   *domain.Registry
	textSource ports.FilingTextSource
	storage    ports.ObjectStorage
	generator  ports.AnswerGenerator
	sections   ports.SectionStore
	filings    ports.FilingRepository
	telemetry  ports.ExtractTelemetry
}

// NewSectionExtractUseCase wires the extraction pipeline; telemetry may be
// nil to disable recording.
func NewSectionExtractUseCase(
	registry *domain.Registry,
	textSource ports.FilingTextSource,
	storage ports.ObjectStorage,
	generator ports.AnswerGenerator,
	sections ports.SectionStore,
	filings ports.FilingRepository,
	telemetry ports.ExtractTelemetry,
) *SectionExtractUseCase {
	return &SectionExtractUseCase{
		registry:   registry,
		textSource: textSource,
		storage:    storage,
		generator:  generator,
		sections:   sections,
		filings:    filings,
		telemetry:  telemetry,
	}
}

func (uc *SectionExtractUseCase) ProcessCompany(ctx context.Context, company string) error {
	sourceFile, err := uc.registry.SourceFileFor(company)
	if err != nil {
		return err
	}

	uc.setStatus(ctx, company, domain.FilingStatusExtracting, "", 0)

	sections, err := uc.extract(ctx, sourceFile)
	if err != nil {
		uc.setStatus(ctx, company, domain.FilingStatusFailed, err.Error(), 0)
		return fmt.Errorf("extract sections for %s: %w", sourceFile, err)
	}

	if err := uc.sections.Save(ctx, sourceFile, sections); err != nil {
		uc.setStatus(ctx, company, domain.FilingStatusFailed, err.Error(), 0)
		return fmt.Errorf("save section index for %s: %w", sourceFile, err)
	}

	uc.setStatus(ctx, company, domain.FilingStatusReady, "", len(sections))
	if uc.telemetry != nil {
		uc.telemetry.SectionsFound(len(sections))
	}
	slog.Info("section_extraction_finished",
		slog.String("company", company),
		slog.String("source_file", sourceFile),
		slog.Int("sections", len(sections)),
	)
	return nil
}

func (uc *SectionExtractUseCase) extract(ctx context.Context, sourceFile string) ([]domain.Section, error) {
	pageText, err := uc.textSource.PageText(ctx, sourceFile)
	if err != nil {
		return nil, err
	}

	pages := splitPages(pageText)
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "section extraction", fmt.Errorf("no pages in %s", sourceFile))
	}

	var raw []rawSection
	for start := 0; start < len(pages); start += sectionBlockPages {
		end := start + sectionBlockPages
		if end > len(pages) {
			end = len(pages)
		}
		block, err := uc.extractBlock(ctx, sourceFile, pages, start, end)
		if err != nil {
			return nil, err
		}
		raw = append(raw, block...)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no section headings detected in %s", sourceFile)
	}

	return uc.buildHierarchy(ctx, raw)
}

// extractBlock returns the cached block result when present, otherwise asks
// the model and caches what it produced.
func (uc *SectionExtractUseCase) extractBlock(ctx context.Context, sourceFile string, pages []pageTextEntry, start, end int) ([]rawSection, error) {
	key := blockCacheKey(sourceFile, start/sectionBlockPages)

	if rc, err := uc.storage.Open(ctx, key); err == nil {
		defer rc.Close()
		var cached []rawSection
		if err := json.NewDecoder(rc).Decode(&cached); err == nil {
			slog.Debug("section_block_cache_hit", slog.String("key", key))
			if uc.telemetry != nil {
				uc.telemetry.BlockCacheHit()
			}
			return cached, nil
		}
		slog.Warn("section_block_cache_corrupt", slog.String("key", key))
	}

	var b strings.Builder
	for _, p := range pages[start:end] {
		fmt.Fprintf(&b, "--- PAGE %d ---\n%s\n", p.Number, p.Text)
	}

	if uc.telemetry != nil {
		uc.telemetry.ModelCalled("block_sections")
	}
	raw, err := uc.generator.GenerateJSONFromPrompt(ctx, buildBlockSectionsPrompt(b.String(), pages[start].Number, pages[end-1].Number))
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", key, err)
	}

	var parsed struct {
		Sections []rawSection `json:"sections"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse block %s: %w", key, err)
	}

	encoded, _ := json.Marshal(parsed.Sections)
	if err := uc.storage.Save(ctx, key, bytes.NewReader(encoded)); err != nil {
		slog.Warn("section_block_cache_write_failed", slog.String("key", key), slog.Any("error", err))
	}
	return parsed.Sections, nil
}

func (uc *SectionExtractUseCase) buildHierarchy(ctx context.Context, raw []rawSection) ([]domain.Section, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if uc.telemetry != nil {
		uc.telemetry.ModelCalled("hierarchy")
	}
	out, err := uc.generator.GenerateJSONFromPrompt(ctx, buildHierarchyPrompt(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("hierarchy pass: %w", err)
	}

	var parsed struct {
		Sections []domain.Section `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return nil, fmt.Errorf("parse hierarchy: %w", err)
	}
	if len(parsed.Sections) == 0 {
		return nil, fmt.Errorf("hierarchy pass returned no sections")
	}
	return parsed.Sections, nil
}

func (uc *SectionExtractUseCase) setStatus(ctx context.Context, company string, status domain.FilingStatus, errMessage string, sectionCount int) {
	if uc.filings == nil {
		return
	}
	if err := uc.filings.UpdateStatus(ctx, company, status, errMessage, sectionCount); err != nil {
		slog.Warn("filing_status_update_failed",
			slog.String("company", company),
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
	}
}

func blockCacheKey(sourceFile string, block int) string {
	base := strings.TrimSuffix(sourceFile, ".pdf")
	return fmt.Sprintf("sections/%s/block_%03d.json", base, block)
}

type pageTextEntry struct {
	Number int
	Text   string
}

// splitPages breaks page-marked text back into (page number, text) pairs.
// Text before the first marker belongs to page 1.
func splitPages(pageText string) []pageTextEntry {
	locs := pageMarkerRe.FindAllStringSubmatchIndex(pageText, -1)
	if len(locs) == 0 {
		trimmed := strings.TrimSpace(pageText)
		if trimmed == "" {
			return nil
		}
		return []pageTextEntry{{Number: 1, Text: trimmed}}
	}

	entries := make([]pageTextEntry, 0, len(locs))
	for i, loc := range locs {
		num, err := strconv.Atoi(pageText[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		bodyStart := loc[1]
		bodyEnd := len(pageText)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		entries = append(entries, pageTextEntry{
			Number: num,
			Text:   strings.TrimSpace(pageText[bodyStart:bodyEnd]),
		})
	}
	return entries
}

func buildBlockSectionsPrompt(blockText string, firstPage, lastPage int) string {
	return fmt.Sprintf(`You are indexing a SEC 10-K annual report. The text below covers pages %d through %d, with "--- PAGE N ---" markers.
List every section or subsection heading that STARTS within these pages.
Return ONLY a JSON object of this shape:
{"sections":[{"section_name":"Item 1A","section_title":"Risk Factors","start_page_number":12}]}
Use the page where the heading appears. Do not invent headings.

%s`, firstPage, lastPage, blockText)
}

func buildHierarchyPrompt(rawJSON string) string {
	return fmt.Sprintf(`Below is a flat JSON list of section headings from a SEC 10-K, in document order.
Classify each as a main section (the Parts and Items of the 10-K) or a subsection nested under the nearest preceding main section.
Return ONLY a JSON object of this shape, keeping document order:
{"sections":[{"section_name":"Item 1A","section_title":"Risk Factors","start_page_number":12,"is_subsection":false}]}

Headings:
%s`, rawJSON)
}
