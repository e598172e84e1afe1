package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

type QueryUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	generator ports.AnswerGenerator
	topK      int
	minScore  float64
}

func NewQueryUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	topK int,
	minScore float64,
) *QueryUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &QueryUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		generator: generator,
		topK:      topK,
		minScore:  minScore,
	}
}

// Retrieve embeds the question and searches the index. A failing filtered
// search falls back to an unfiltered one so a bad filter never blanks the
// answer.
func (uc *QueryUseCase) Retrieve(
	ctx context.Context,
	question string,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		limit = uc.topK
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := uc.vectorDB.Search(ctx, queryVector, limit, filter)
	if err != nil {
		if filter.SourceFile == "" {
			return nil, fmt.Errorf("search vector db: %w", err)
		}
		slog.Warn("filtered_search_failed_falling_back",
			"source_file", filter.SourceFile,
			"error", err,
		)
		chunks, err = uc.vectorDB.Search(ctx, queryVector, limit, domain.SearchFilter{})
		if err != nil {
			return nil, fmt.Errorf("search vector db: %w", err)
		}
	}

	return uc.applyScoreThreshold(chunks), nil
}

func (uc *QueryUseCase) Answer(
	ctx context.Context,
	question string,
	limit int,
	filter domain.SearchFilter,
) (*domain.Answer, error) {
	chunks, err := uc.Retrieve(ctx, question, limit, filter)
	if err != nil {
		return nil, err
	}

	answerText, err := uc.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Route:   domain.RouteFiling,
		Sources: chunks,
	}, nil
}

func (uc *QueryUseCase) applyScoreThreshold(chunks []domain.RetrievedChunk) []domain.RetrievedChunk {
	if uc.minScore <= 0 {
		return chunks
	}
	kept := chunks[:0]
	for _, chunk := range chunks {
		if chunk.Score >= uc.minScore {
			kept = append(kept, chunk)
		}
	}
	return kept
}
