package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// EnrichmentRepository checkpoints enrichment runs so an interrupted run
// can resume without re-locating records already written to the index.
type EnrichmentRepository struct {
	db *sql.DB
}

func NewEnrichmentRepository(db *sql.DB) *EnrichmentRepository {
	return &EnrichmentRepository{db: db}
}

func (r *EnrichmentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082602)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS enrichment_runs (
	id TEXT PRIMARY KEY,
	company TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	processed INTEGER NOT NULL DEFAULT 0,
	enriched INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS enrichment_run_records (
	company TEXT NOT NULL,
	record_id TEXT NOT NULL,
	page_number INTEGER NOT NULL,
	enriched_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (company, record_id)
);

CREATE INDEX IF NOT EXISTS idx_enrichment_runs_company ON enrichment_runs(company);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *EnrichmentRepository) StartRun(ctx context.Context, run *domain.EnrichmentRun) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO enrichment_runs (id, company, started_at)
VALUES ($1,$2,$3)
`, run.ID, run.Company, run.StartedAt)
	if err != nil {
		return fmt.Errorf("insert enrichment run: %w", err)
	}
	return nil
}

func (r *EnrichmentRepository) FinishRun(ctx context.Context, run *domain.EnrichmentRun) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE enrichment_runs
SET finished_at = $2, processed = $3, enriched = $4, failed = $5
WHERE id = $1
`, run.ID, run.FinishedAt, run.Processed, run.Enriched, run.Failed)
	if err != nil {
		return fmt.Errorf("finish enrichment run: %w", err)
	}
	return nil
}

func (r *EnrichmentRepository) MarkRecordEnriched(ctx context.Context, company, recordID string, pageNumber int) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO enrichment_run_records (company, record_id, page_number, enriched_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (company, record_id) DO UPDATE
SET page_number = EXCLUDED.page_number,
	enriched_at = EXCLUDED.enriched_at
`, company, recordID, pageNumber, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark record enriched: %w", err)
	}
	return nil
}

func (r *EnrichmentRepository) CompletedRecordIDs(ctx context.Context, company string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT record_id FROM enrichment_run_records WHERE company = $1
`, company)
	if err != nil {
		return nil, fmt.Errorf("query completed records: %w", err)
	}
	defer rows.Close()

	completed := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		completed[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed records: %w", err)
	}
	return completed, nil
}
