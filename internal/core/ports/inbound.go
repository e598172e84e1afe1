package ports

import (
	"context"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// QuestionService is the inbound contract for routed question answering.
type QuestionService interface {
	Ask(ctx context.Context, question string, topK int) (*domain.Answer, error)
}

// FilingService is the inbound read/trigger surface for tracked filings.
type FilingService interface {
	GetByCompany(ctx context.Context, company string) (*domain.Filing, error)
	List(ctx context.Context) ([]domain.Filing, error)
	RequestSectionExtract(ctx context.Context, company string) error
}

// SectionExtractProcessor is the inbound contract for the async
// section-extraction pipeline.
type SectionExtractProcessor interface {
	ProcessCompany(ctx context.Context, company string) error
}

// Enricher runs the metadata-enrichment pipeline for one company.
type Enricher interface {
	Enrich(ctx context.Context, opts domain.EnrichmentOptions) (*domain.EnrichmentSummary, error)
}
