package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// FilingRepository keeps filing pipeline state in process memory. Used when
// no Postgres DSN is configured; state does not survive a restart.
type FilingRepository struct {
	mu      sync.RWMutex
	filings map[string]domain.Filing
}

func NewFilingRepository() *FilingRepository {
	return &FilingRepository{filings: make(map[string]domain.Filing)}
}

func (r *FilingRepository) Upsert(_ context.Context, filing *domain.Filing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filings[filing.Company] = *filing
	return nil
}

func (r *FilingRepository) GetByCompany(_ context.Context, company string) (*domain.Filing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filing, ok := r.filings[company]
	if !ok {
		return nil, domain.WrapError(domain.ErrFilingNotFound, "get filing", fmt.Errorf("company %s", company))
	}
	return &filing, nil
}

func (r *FilingRepository) UpdateStatus(_ context.Context, company string, status domain.FilingStatus, errMessage string, sectionCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filing, ok := r.filings[company]
	if !ok {
		return domain.WrapError(domain.ErrFilingNotFound, "update filing status", fmt.Errorf("company %s", company))
	}
	filing.Status = status
	filing.Error = errMessage
	filing.SectionCount = sectionCount
	filing.UpdatedAt = time.Now().UTC()
	r.filings[company] = filing
	return nil
}

func (r *FilingRepository) List(_ context.Context) ([]domain.Filing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Filing, 0, len(r.filings))
	for _, filing := range r.filings {
		out = append(out, filing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Company < out[j].Company })
	return out, nil
}
