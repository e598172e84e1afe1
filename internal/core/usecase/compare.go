package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

// CompareUseCase answers multi-company questions with balanced retrieval:
// the same small number of chunks from each named filing, so no company
// dominates the context window.
type CompareUseCase struct {
	embedder   ports.Embedder
	vectorDB   ports.VectorStore
	generator  ports.AnswerGenerator
	perCompany int
}

func NewCompareUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.AnswerGenerator,
	perCompany int,
) *CompareUseCase {
	if perCompany <= 0 {
		perCompany = 2
	}
	return &CompareUseCase{
		embedder:   embedder,
		vectorDB:   vectorDB,
		generator:  generator,
		perCompany: perCompany,
	}
}

// RetrieveBalanced pulls perCompany chunks from each source file, preserving
// the order the companies were named in. A failure for one company skips it
// and continues with the rest.
func (uc *CompareUseCase) RetrieveBalanced(
	ctx context.Context,
	question string,
	sourceFiles []string,
) ([]domain.RetrievedChunk, error) {
	if len(sourceFiles) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "balanced retrieval", fmt.Errorf("no source files to compare"))
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	merged := make([]domain.RetrievedChunk, 0, uc.perCompany*len(sourceFiles))
	for _, sourceFile := range sourceFiles {
		chunks, err := uc.vectorDB.Search(ctx, queryVector, uc.perCompany, domain.SearchFilter{SourceFile: sourceFile})
		if err != nil {
			slog.Warn("balanced_retrieval_company_failed",
				"source_file", sourceFile,
				"error", err,
			)
			continue
		}
		merged = append(merged, chunks...)
	}
	return merged, nil
}

func (uc *CompareUseCase) Compare(
	ctx context.Context,
	question string,
	sourceFiles []string,
) (*domain.Answer, error) {
	chunks, err := uc.RetrieveBalanced(ctx, question, sourceFiles)
	if err != nil {
		return nil, err
	}

	answerText, err := uc.generator.GenerateAnswer(ctx, question, chunks)
	if err != nil {
		return nil, fmt.Errorf("generate comparison answer: %w", err)
	}

	return &domain.Answer{
		Text:    answerText,
		Route:   domain.RouteComparison,
		Sources: chunks,
	}, nil
}
