package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/chipfilings/assistant/internal/core/domain"
)

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishSectionExtract(_ context.Context, company string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, company)
	return nil
}

func (f *queueFake) SubscribeSectionExtract(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestFilingUseCaseGetByCompanyDefaultsToRegistered(t *testing.T) {
	uc := NewFilingUseCase(domain.DefaultRegistry(), &filingRepoFake{}, &queueFake{})

	filing, err := uc.GetByCompany(context.Background(), "amd")
	if err != nil {
		t.Fatalf("GetByCompany() error = %v", err)
	}
	if filing.Status != domain.FilingStatusRegistered || filing.SourceFile != "amd_10k.pdf" {
		t.Fatalf("unexpected filing %+v", filing)
	}
}

func TestFilingUseCaseGetByCompanyUnknown(t *testing.T) {
	uc := NewFilingUseCase(domain.DefaultRegistry(), &filingRepoFake{}, &queueFake{})

	_, err := uc.GetByCompany(context.Background(), "tesla")
	if !domain.IsKind(err, domain.ErrCompanyUnknown) {
		t.Fatalf("expected unknown company error, got %v", err)
	}
}

func TestFilingUseCaseRequestSectionExtract(t *testing.T) {
	repo := &filingRepoFake{}
	queue := &queueFake{}
	uc := NewFilingUseCase(domain.DefaultRegistry(), repo, queue)

	if err := uc.RequestSectionExtract(context.Background(), "intel"); err != nil {
		t.Fatalf("RequestSectionExtract() error = %v", err)
	}
	if len(queue.published) != 1 || queue.published[0] != "intel" {
		t.Fatalf("expected intel job published, got %v", queue.published)
	}
	filing, ok := repo.filings["intel"]
	if !ok || filing.Status != domain.FilingStatusRegistered {
		t.Fatalf("expected registered filing, got %+v", filing)
	}
}

func TestFilingUseCaseRequestSectionExtractQueueError(t *testing.T) {
	uc := NewFilingUseCase(domain.DefaultRegistry(), &filingRepoFake{}, &queueFake{err: errors.New("nats down")})

	if err := uc.RequestSectionExtract(context.Background(), "intel"); err == nil {
		t.Fatalf("expected error")
	}
}
