package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/core/ports"
)

// FilingUseCase exposes filing pipeline state and enqueues section
// extraction for the async worker.
type FilingUseCase struct {
	registry *domain.Registry
	filings  ports.FilingRepository
	queue    ports.MessageQueue
}

func NewFilingUseCase(registry *domain.Registry, filings ports.FilingRepository, queue ports.MessageQueue) *FilingUseCase {
	return &FilingUseCase{
		registry: registry,
		filings:  filings,
		queue:    queue,
	}
}

func (uc *FilingUseCase) GetByCompany(ctx context.Context, company string) (*domain.Filing, error) {
	sourceFile, err := uc.registry.SourceFileFor(company)
	if err != nil {
		return nil, err
	}

	filing, err := uc.filings.GetByCompany(ctx, company)
	if err != nil {
		if domain.IsKind(err, domain.ErrFilingNotFound) {
			// Known company with no pipeline history yet.
			return &domain.Filing{
				Company:    company,
				SourceFile: sourceFile,
				Status:     domain.FilingStatusRegistered,
			}, nil
		}
		return nil, err
	}
	return filing, nil
}

// List returns the pipeline state of every tracked filing.
func (uc *FilingUseCase) List(ctx context.Context) ([]domain.Filing, error) {
	return uc.filings.List(ctx)
}

func (uc *FilingUseCase) RequestSectionExtract(ctx context.Context, company string) error {
	sourceFile, err := uc.registry.SourceFileFor(company)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := uc.filings.Upsert(ctx, &domain.Filing{
		Company:    company,
		SourceFile: sourceFile,
		Status:     domain.FilingStatusRegistered,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return fmt.Errorf("register filing %s: %w", company, err)
	}

	if err := uc.queue.PublishSectionExtract(ctx, company); err != nil {
		return fmt.Errorf("enqueue section extraction for %s: %w", company, err)
	}

	slog.Info("section_extraction_requested",
		slog.String("company", company),
		slog.String("source_file", sourceFile),
	)
	return nil
}
