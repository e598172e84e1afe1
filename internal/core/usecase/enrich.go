package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

const (
	enrichFetchLimit = 10000
	enrichBatchSize  = 45
)

// FragmentFunc reduces a stored chunk's text to its longest clean fragment,
// with markup stripped and whitespace collapsed.
type FragmentFunc func(text string) string

// LocateFunc finds a fragment inside page-marked filing text. It returns
// the page number, whether the hit was an exact substring match, and whether
// the fragment was found at all.
type LocateFunc func(fragment, pageText string) (page int, exact bool, found bool)

// EnrichUseCase back-fills page numbers and section labels onto vector
// records by locating each chunk's text inside the source PDF. Records that
// already carry a page number are never touched, so reruns are idempotent;
// an optional checkpoint log lets an interrupted live run resume.
type EnrichUseCase struct {
	registry   *domain.Registry
	vectorDB   ports.VectorStore
	textSource ports.FilingTextSource
	sections   ports.SectionStore
	checkpoint ports.EnrichmentLog

	fragmentOf FragmentFunc
	locate     LocateFunc

	rng *rand.Rand
}

// NewEnrichUseCase wires the enrichment pipeline. checkpoint may be nil, in
// which case runs are still idempotent but not resumable mid-run.
func NewEnrichUseCase(
	registry *domain.Registry,
	vectorDB ports.VectorStore,
	textSource ports.FilingTextSource,
	sections ports.SectionStore,
	checkpoint ports.EnrichmentLog,
	fragmentOf FragmentFunc,
	locate LocateFunc,
) *EnrichUseCase {
	return &EnrichUseCase{
		registry:   registry,
		vectorDB:   vectorDB,
		textSource: textSource,
		sections:   sections,
		checkpoint: checkpoint,
		fragmentOf: fragmentOf,
		locate:     locate,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (uc *EnrichUseCase) Enrich(ctx context.Context, opts domain.EnrichmentOptions) (*domain.EnrichmentSummary, error) {
	// Company resolution happens before any index or model call so an
	// unknown name fails fast and free.
	sourceFile, err := uc.registry.SourceFileFor(opts.Company)
	if err != nil {
		return nil, err
	}

	summary := &domain.EnrichmentSummary{
		Company:    opts.Company,
		SourceFile: sourceFile,
		DryRun:     opts.DryRun,
	}

	records, err := uc.vectorDB.FetchByFilter(ctx, domain.SearchFilter{SourceFile: sourceFile}, enrichFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch records for %s: %w", sourceFile, err)
	}
	summary.TotalRecords = len(records)

	completed := map[string]struct{}{}
	if uc.checkpoint != nil {
		completed, err = uc.checkpoint.CompletedRecordIDs(ctx, opts.Company)
		if err != nil {
			slog.Warn("enrichment_checkpoint_read_failed", slog.Any("error", err))
			completed = map[string]struct{}{}
		}
	}

	candidates := make([]domain.VectorRecord, 0, len(records))
	for _, rec := range records {
		if rec.Enriched() {
			continue
		}
		if _, done := completed[rec.ID]; done {
			summary.Resumed++
			continue
		}
		candidates = append(candidates, rec)
	}
	summary.Candidates = len(candidates)

	selected := uc.selectRecords(candidates, opts)
	if len(selected) == 0 {
		slog.Info("enrichment_nothing_to_do",
			slog.String("company", opts.Company),
			slog.Int("total_records", summary.TotalRecords),
			slog.Int("resumed", summary.Resumed),
		)
		return summary, nil
	}

	pageText, err := uc.textSource.PageText(ctx, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("load filing text for %s: %w", sourceFile, err)
	}

	sections, err := uc.sections.Load(ctx, sourceFile)
	if err != nil {
		slog.Warn("section_index_unavailable",
			slog.String("source_file", sourceFile),
			slog.Any("error", err),
		)
		sections = nil
	}

	run := &domain.EnrichmentRun{
		ID:        uuid.NewString(),
		Company:   opts.Company,
		StartedAt: time.Now().UTC(),
	}
	if uc.checkpoint != nil && !opts.DryRun {
		if err := uc.checkpoint.StartRun(ctx, run); err != nil {
			slog.Warn("enrichment_run_start_failed", slog.Any("error", err))
		}
	}

	for start := 0; start < len(selected); start += enrichBatchSize {
		end := start + enrichBatchSize
		if end > len(selected) {
			end = len(selected)
		}
		slog.Info("enrichment_batch",
			slog.String("company", opts.Company),
			slog.Int("from", start+1),
			slog.Int("to", end),
			slog.Int("selected", len(selected)),
		)
		for _, rec := range selected[start:end] {
			if ctx.Err() != nil {
				break
			}
			uc.enrichRecord(ctx, opts, rec, pageText, sections, summary)
		}
		if ctx.Err() != nil {
			break
		}
	}

	run.FinishedAt = time.Now().UTC()
	run.Processed = summary.Processed
	run.Enriched = summary.Enriched
	run.Failed = summary.Failed
	if uc.checkpoint != nil && !opts.DryRun {
		if err := uc.checkpoint.FinishRun(ctx, run); err != nil {
			slog.Warn("enrichment_run_finish_failed", slog.Any("error", err))
		}
	}

	slog.Info("enrichment_finished",
		slog.String("company", opts.Company),
		slog.Int("processed", summary.Processed),
		slog.Int("enriched", summary.Enriched),
		slog.Int("failed", summary.Failed),
		slog.Bool("dry_run", opts.DryRun),
	)
	return summary, ctx.Err()
}

func (uc *EnrichUseCase) enrichRecord(
	ctx context.Context,
	opts domain.EnrichmentOptions,
	rec domain.VectorRecord,
	pageText string,
	sections []domain.Section,
	summary *domain.EnrichmentSummary,
) {
	summary.Processed++

	fragment := uc.fragmentOf(rec.Text())
	if fragment == "" {
		summary.Failed++
		slog.Debug("enrichment_empty_fragment", slog.String("record_id", rec.ID))
		return
	}

	page, exact, found := uc.locate(fragment, pageText)
	if !found {
		summary.Failed++
		slog.Debug("enrichment_fragment_not_located", slog.String("record_id", rec.ID))
		return
	}

	meta := domain.EnrichedMetadata{
		PageNumber: page,
		ExactMatch: exact,
	}
	if match := domain.FindSectionForPage(sections, page); match != nil {
		meta.HierarchicalSection = match.Hierarchical()
		if match.Main != nil {
			meta.MainSectionName = match.Main.SectionName
			meta.MainSectionTitle = match.Main.SectionTitle
		}
		if match.Sub != nil {
			meta.SubsectionName = match.Sub.SectionName
			meta.SubsectionTitle = match.Sub.SectionTitle
		}
	} else {
		meta.HierarchicalSection = "Unknown"
	}

	if opts.DryRun {
		summary.Enriched++
		slog.Info("dry_run_would_update",
			slog.String("record_id", rec.ID),
			slog.Int("page_number", page),
			slog.String("section", meta.HierarchicalSection),
			slog.Bool("exact_match", exact),
		)
		return
	}

	if err := uc.vectorDB.UpdateMetadata(ctx, rec.ID, meta.Update()); err != nil {
		summary.Failed++
		slog.Warn("enrichment_update_failed",
			slog.String("record_id", rec.ID),
			slog.Any("error", err),
		)
		return
	}
	summary.Enriched++

	if uc.checkpoint != nil {
		if err := uc.checkpoint.MarkRecordEnriched(ctx, opts.Company, rec.ID, page); err != nil {
			slog.Warn("enrichment_checkpoint_write_failed",
				slog.String("record_id", rec.ID),
				slog.Any("error", err),
			)
		}
	}
}

// selectRecords applies the sampling rules: --all (or a negative count)
// takes every candidate, otherwise a random sample of min(count, available).
func (uc *EnrichUseCase) selectRecords(candidates []domain.VectorRecord, opts domain.EnrichmentOptions) []domain.VectorRecord {
	if opts.All || opts.Count < 0 {
		return candidates
	}
	n := opts.Count
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return nil
	}
	if n == len(candidates) {
		return candidates
	}

	shuffled := make([]domain.VectorRecord, len(candidates))
	copy(shuffled, candidates)
	uc.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
