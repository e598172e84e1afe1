package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chipfilings/assistant/internal/core/domain"
)

func newEnrichmentRepoWithMock(t *testing.T) (*EnrichmentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &EnrichmentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnrichmentStartThenFinishRun(t *testing.T) {
	repo, mock, done := newEnrichmentRepoWithMock(t)
	defer done()

	started := time.Now().UTC()
	run := &domain.EnrichmentRun{ID: "run-1", Company: "intel", StartedAt: started}

	mock.ExpectExec("INSERT INTO enrichment_runs").
		WithArgs("run-1", "intel", started).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.StartRun(context.Background(), run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	run.FinishedAt = started.Add(time.Minute)
	run.Processed = 10
	run.Enriched = 8
	run.Failed = 2

	mock.ExpectExec("UPDATE enrichment_runs").
		WithArgs("run-1", run.FinishedAt, 10, 8, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.FinishRun(context.Background(), run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnrichmentMarkRecordEnrichedUpserts(t *testing.T) {
	repo, mock, done := newEnrichmentRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO enrichment_run_records").
		WithArgs("nvidia", "rec-7", 12, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkRecordEnriched(context.Background(), "nvidia", "rec-7", 12); err != nil {
		t.Fatalf("MarkRecordEnriched: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnrichmentCompletedRecordIDs(t *testing.T) {
	repo, mock, done := newEnrichmentRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"record_id"}).
		AddRow("rec-1").
		AddRow("rec-2")

	mock.ExpectQuery("SELECT record_id FROM enrichment_run_records").
		WithArgs("broadcom").
		WillReturnRows(rows)

	completed, err := repo.CompletedRecordIDs(context.Background(), "broadcom")
	if err != nil {
		t.Fatalf("CompletedRecordIDs: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed records, got %d", len(completed))
	}
	if _, ok := completed["rec-2"]; !ok {
		t.Fatalf("rec-2 missing from completed set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
