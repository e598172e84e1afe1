package ports

import (
	"context"
	"io"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// Embedder builds vectors for query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore reads and updates the hosted vector index. Search is
// similarity retrieval; FetchByFilter is the metadata-only bulk read the
// enrichment pipeline uses; UpdateMetadata never touches vectors.
// DeleteByFilter requires a filter; DeleteAll is the explicit whole-index
// wipe behind `purge all`.
type VectorStore interface {
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedChunk, error)
	FetchByFilter(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.VectorRecord, error)
	UpdateMetadata(ctx context.Context, id string, update domain.MetadataUpdate) error
	DeleteByFilter(ctx context.Context, filter domain.SearchFilter) error
	DeleteAll(ctx context.Context) error
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// AnswerGenerator creates the final user-facing answer and raw completions
// for planner/extraction prompts.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
	GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error)
}

// WebSearcher performs a live web search for time-sensitive questions.
type WebSearcher interface {
	Search(ctx context.Context, query string) (*domain.WebSearchResponse, error)
}

// FilingTextSource yields the full page-marked plain text of a filing.
type FilingTextSource interface {
	PageText(ctx context.Context, sourceFile string) (string, error)
}

// SectionStore persists and loads per-filing section indexes.
type SectionStore interface {
	Load(ctx context.Context, sourceFile string) ([]domain.Section, error)
	Save(ctx context.Context, sourceFile string, sections []domain.Section) error
}

// FilingRepository persists filing pipeline state.
type FilingRepository interface {
	Upsert(ctx context.Context, filing *domain.Filing) error
	GetByCompany(ctx context.Context, company string) (*domain.Filing, error)
	UpdateStatus(ctx context.Context, company string, status domain.FilingStatus, errMessage string, sectionCount int) error
	List(ctx context.Context) ([]domain.Filing, error)
}

// EnrichmentLog checkpoints live enrichment runs so an interrupted run can
// resume without re-locating records.
type EnrichmentLog interface {
	StartRun(ctx context.Context, run *domain.EnrichmentRun) error
	FinishRun(ctx context.Context, run *domain.EnrichmentRun) error
	MarkRecordEnriched(ctx context.Context, company, recordID string, pageNumber int) error
	CompletedRecordIDs(ctx context.Context, company string) (map[string]struct{}, error)
}

// ObjectStorage caches derived filing artifacts (parsed text, block results).
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// AnswerTelemetry receives answer-path events for metrics export. A nil
// implementation disables recording.
type AnswerTelemetry interface {
	AgentRunFinished(status string, iterations int)
	AgentToolCalled(tool, status string)
	WebSearchFinished(err error)
}

// ExtractTelemetry receives section-extraction pipeline events.
type ExtractTelemetry interface {
	ModelCalled(kind string)
	BlockCacheHit()
	SectionsFound(count int)
}

// MessageQueue publishes/consumes section-extraction jobs.
type MessageQueue interface {
	PublishSectionExtract(ctx context.Context, company string) error
	SubscribeSectionExtract(ctx context.Context, handler func(context.Context, string) error) error
}
