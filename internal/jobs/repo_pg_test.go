package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateReturnsGeneratedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	job := Job{
		UserID:           "user-1",
		JobType:          TypeDocument,
		Status:           StatusPending,
		OriginalFileName: "notes.txt",
		OriginalFileKey:  "uploads/notes.txt",
		MimeType:         "text/plain",
		FileSize:         42,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs(
			job.UserID,
			job.JobType,
			job.Status,
			job.OriginalFileName,
			nil, // original_file_url
			job.OriginalFileKey,
			job.MimeType,
			job.FileSize,
			nil, // user_query
			nil, // custom_instructions
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), job)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkProcessingGuardsPendingOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs(int64(5), StatusProcessing, sqlmock.AnyArg(), StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkProcessing(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on guarded update, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkCompletedGuardsTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	completedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs(int64(5), StatusCompleted, "http://x/jobs/5/out.jsonl", "jobs/5/out.jsonl", completedAt, StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkCompleted(context.Background(), 5, "http://x/jobs/5/out.jsonl", "jobs/5/out.jsonl", completedAt); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkFailedLeavesCompletedAtNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	failedAt := time.Now().UTC()
	// The failed branch touches updated_at only; completed_at marks success.
	mock.ExpectExec(`UPDATE jobs SET status = \$2, error_message = \$3, updated_at = \$4`).
		WithArgs(int64(5), StatusFailed, "boom", failedAt, StatusPending, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkFailed(context.Background(), 5, "boom", failedAt); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateQueryIsOwnerScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE jobs SET user_query").
		WithArgs(int64(5), "user-2", "query", "instructions", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateQuery(context.Background(), 5, "user-2", "query", "instructions"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
