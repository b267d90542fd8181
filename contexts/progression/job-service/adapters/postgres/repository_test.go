package postgresadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var repoNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}
	return NewRepository(gdb, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func sampleJob(t *testing.T) entities.Job {
	t.Helper()
	job, err := entities.NewJob("job-1", "ada", entities.ContractDefinition{
		ContractID:   "bakery",
		Title:        "Bakery Website",
		Status:       entities.ContractStatusOpen,
		BasePayoutXP: 100,
		Stages: []entities.StageTemplate{
			{SequenceNumber: 1, Name: "Wireframe"},
			{SequenceNumber: 2, Name: "Build"},
		},
	}, repoNow)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestGetJobNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE job_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}))

	if _, err := repo.GetJob(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetJobDecodesLegacyStatuses(t *testing.T) {
	repo, mock := newMockRepository(t)

	stages := []byte(`[{"stage_number":1,"name":"Wireframe","status":"done","payout_xp":100,"attempts":1},` +
		`{"stage_number":2,"name":"Build","status":"submitted","payout_xp":100,"attempts":1}]`)
	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE job_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{
			"job_id", "user_id", "contract_id", "contract_version", "contract_title", "completion_badge",
			"status", "current_stage_number", "stage_count", "stages", "started_at", "updated_at",
			"completed_at", "archived_at", "version",
		}).AddRow(
			"job-1", "ada", "bakery", 1, "Bakery Website", "baker",
			"in_review", 2, 2, stages, repoNow, repoNow,
			nil, nil, int64(4),
		))

	job, err := repo.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != entities.JobStatusPendingReview || job.Version != 4 {
		t.Fatalf("unexpected job: status=%s version=%d", job.Status, job.Version)
	}
	if job.Stages[1].Status != entities.StageStatusApproved || job.Stages[2].Status != entities.StageStatusPendingReview {
		t.Fatalf("unexpected stage statuses: %s %s", job.Stages[1].Status, job.Stages[2].Status)
	}
	if err := job.CheckInvariants(); err != nil {
		t.Fatalf("decoded job violates invariants: %v", err)
	}
}

func TestUpdateJobReportsStaleVersion(t *testing.T) {
	repo, mock := newMockRepository(t)
	job := sampleJob(t)
	next, err := job.Submit(1, "sketch", repoNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET .* WHERE .*job_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs" WHERE job_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	if err := repo.UpdateJob(context.Background(), job.Version, next, nil); !errors.Is(err, domainerrors.ErrStaleJobState) {
		t.Fatalf("expected ErrStaleJobState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateJobReportsMissingJob(t *testing.T) {
	repo, mock := newMockRepository(t)
	job := sampleJob(t)
	next, err := job.Submit(1, "sketch", repoNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	if err := repo.UpdateJob(context.Background(), job.Version, next, nil); !errors.Is(err, domainerrors.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestUpdateJobTranslatesSerializationFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	job := sampleJob(t)
	next, err := job.Submit(1, "sketch", repoNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "jobs" SET`).
		WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	mock.ExpectRollback()

	err = repo.UpdateJob(context.Background(), job.Version, next, nil)
	if !domainerrors.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestCreateJobMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "jobs"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "jobs_user_contract_key"})
	mock.ExpectRollback()

	if err := repo.CreateJob(context.Background(), sampleJob(t), nil); !errors.Is(err, domainerrors.ErrJobAlreadyExists) {
		t.Fatalf("expected ErrJobAlreadyExists, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	plain := errors.New("boom")
	tests := []struct {
		name      string
		err       error
		transient bool
		conflict  bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, conflict: true},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, transient: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, transient: true},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, transient: true},
		{name: "connection failure class", err: &pgconn.PgError{Code: "08006"}, transient: true},
		{name: "deadline", err: context.DeadlineExceeded, transient: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}},
		{name: "plain", err: plain},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(tc.err)
			if domainerrors.IsTransient(got) != tc.transient {
				t.Fatalf("transient: expected %v, got %v (%v)", tc.transient, !tc.transient, got)
			}
			if errors.Is(got, domainerrors.ErrConflict) != tc.conflict {
				t.Fatalf("conflict: expected %v for %v", tc.conflict, got)
			}
			if !errors.Is(got, tc.err) && !tc.conflict {
				t.Fatalf("original error dropped from chain: %v", got)
			}
		})
	}
	if mapError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestJobModelRoundTrip(t *testing.T) {
	job := sampleJob(t)
	submitted, err := job.Submit(1, "sketch", repoNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	row, err := jobModelFromEntity(submitted)
	if err != nil {
		t.Fatalf("to model: %v", err)
	}
	back, err := row.toEntity()
	if err != nil {
		t.Fatalf("to entity: %v", err)
	}
	if back.Status != submitted.Status || back.Stages[1].SubmissionContent != "sketch" || back.Stages[1].Attempts != 1 {
		t.Fatalf("round trip lost data: %+v", back.Stages[1])
	}
	if back.Stages[1].SubmittedAt == nil || !back.Stages[1].SubmittedAt.Equal(repoNow) {
		t.Fatalf("submitted_at not preserved: %v", back.Stages[1].SubmittedAt)
	}
}
