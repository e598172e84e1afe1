package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
)

type FilingRepository struct {
	db *sql.DB
}

func NewFilingRepository(db *sql.DB) *FilingRepository {
	return &FilingRepository{db: db}
}

func (r *FilingRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS filings (
	company TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	status TEXT NOT NULL,
	section_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_filings_status ON filings(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *FilingRepository) Upsert(ctx context.Context, filing *domain.Filing) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO filings (company, source_file, status, section_count, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (company) DO UPDATE
SET source_file = EXCLUDED.source_file,
	status = EXCLUDED.status,
	section_count = EXCLUDED.section_count,
	error_message = EXCLUDED.error_message,
	updated_at = EXCLUDED.updated_at
`,
		filing.Company, filing.SourceFile, string(filing.Status), filing.SectionCount,
		filing.Error, filing.CreatedAt, filing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert filing: %w", err)
	}
	return nil
}

func (r *FilingRepository) GetByCompany(ctx context.Context, company string) (*domain.Filing, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT company, source_file, status, section_count, error_message, created_at, updated_at
FROM filings
WHERE company = $1
`, company)

	var filing domain.Filing
	var status string

	err := row.Scan(
		&filing.Company, &filing.SourceFile, &status, &filing.SectionCount,
		&filing.Error, &filing.CreatedAt, &filing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFilingNotFound, "get filing", fmt.Errorf("company %s", company))
		}
		return nil, fmt.Errorf("scan filing: %w", err)
	}
	filing.Status = domain.FilingStatus(status)
	return &filing, nil
}

func (r *FilingRepository) UpdateStatus(ctx context.Context, company string, status domain.FilingStatus, errMessage string, sectionCount int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE filings
SET status = $2, error_message = $3, section_count = $4, updated_at = $5
WHERE company = $1
`, company, string(status), errMessage, sectionCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update filing status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrFilingNotFound, "update filing status", fmt.Errorf("company %s", company))
	}
	return nil
}

func (r *FilingRepository) List(ctx context.Context) ([]domain.Filing, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT company, source_file, status, section_count, error_message, created_at, updated_at
FROM filings
ORDER BY company
`)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	defer rows.Close()

	var filings []domain.Filing
	for rows.Next() {
		var filing domain.Filing
		var status string
		if err := rows.Scan(
			&filing.Company, &filing.SourceFile, &status, &filing.SectionCount,
			&filing.Error, &filing.CreatedAt, &filing.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan filing row: %w", err)
		}
		filing.Status = domain.FilingStatus(status)
		filings = append(filings, filing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filings: %w", err)
	}
	return filings, nil
}
