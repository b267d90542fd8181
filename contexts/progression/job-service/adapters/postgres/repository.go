package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateJob(ctx context.Context, job entities.Job, events []ports.EventEnvelope) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	row, err := jobModelFromEntity(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrJobAlreadyExists
			}
			return mapError(err)
		}
		return appendOutbox(tx, events)
	})
}

func (r *Repository) GetJob(ctx context.Context, jobID string) (entities.Job, error) {
	var row jobModel
	err := r.db.WithContext(ctx).
		Where("job_id = ?", strings.TrimSpace(jobID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Job{}, domainerrors.ErrJobNotFound
		}
		return entities.Job{}, mapError(err)
	}
	return row.toEntity()
}

func (r *Repository) GetJobByUserContract(ctx context.Context, userID string, contractID string) (entities.Job, error) {
	var row jobModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("contract_id = ?", strings.TrimSpace(contractID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Job{}, domainerrors.ErrJobNotFound
		}
		return entities.Job{}, mapError(err)
	}
	return row.toEntity()
}

func (r *Repository) UpdateJob(ctx context.Context, expectedVersion int64, job entities.Job, events []ports.EventEnvelope) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	row, err := jobModelFromEntity(job)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := compareAndSetJob(tx, expectedVersion, row); err != nil {
			return err
		}
		return appendOutbox(tx, events)
	})
}

// CommitApproval writes the job transition, settlement, claims, profile
// credit and outbox rows in one transaction. The settlement primary key
// (job_id, stage_number) rejects a second payout for the same stage even if
// the version check were bypassed.
func (r *Repository) CommitApproval(ctx context.Context, commit ports.ApprovalCommit) error {
	if err := commit.Job.CheckInvariants(); err != nil {
		return err
	}
	jobRow, err := jobModelFromEntity(commit.Job)
	if err != nil {
		return err
	}
	settlementRow, err := settlementModelFromEntity(commit.Settlement)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := compareAndSetJob(tx, commit.ExpectedVersion, jobRow); err != nil {
			return err
		}

		created := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}, {Name: "stage_number"}},
			DoNothing: true,
		}).Create(&settlementRow)
		if created.Error != nil {
			return mapError(created.Error)
		}
		if created.RowsAffected == 0 {
			return domainerrors.ErrStageAlreadySettled
		}

		for _, claim := range commit.Claims {
			row := eventClaimModel{
				UserID:      claim.UserID,
				EventID:     claim.EventID,
				JobID:       claim.JobID,
				StageNumber: claim.StageNumber,
				ClaimedAt:   claim.ClaimedAt.UTC(),
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
				DoNothing: true,
			}).Create(&row)
			if result.Error != nil {
				return mapError(result.Error)
			}
			if result.RowsAffected == 0 {
				return domainerrors.ErrEventAlreadyClaimed
			}
		}

		if err := creditProfile(tx, commit.Credit, commit.Settlement.SettledAt); err != nil {
			return err
		}
		return appendOutbox(tx, commit.Events)
	})
	if err != nil {
		r.logger.Warn("job approval commit failed",
			"event", "job_approval_commit_failed",
			"module", "progression/job-service",
			"layer", "adapter",
			"job_id", commit.Job.JobID,
			"stage_number", commit.Settlement.StageNumber,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (r *Repository) ListJobs(ctx context.Context, filter ports.JobFilter) ([]entities.Job, error) {
	tx := r.db.WithContext(ctx).Model(&jobModel{})
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}
	if contractID := strings.TrimSpace(filter.ContractID); contractID != "" {
		tx = tx.Where("contract_id = ?", contractID)
	}
	if title := strings.TrimSpace(filter.ContractTitle); title != "" {
		tx = tx.Where("LOWER(TRIM(contract_title)) = ?", strings.ToLower(title))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if len(filter.UserIDs) > 0 {
		tx = tx.Where("user_id IN ?", filter.UserIDs)
	}

	var rows []jobModel
	if err := tx.Order("started_at ASC").Order("job_id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	items := make([]entities.Job, 0, len(rows))
	for _, row := range rows {
		job, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, job)
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, mapError(err)
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func compareAndSetJob(tx *gorm.DB, expectedVersion int64, row jobModel) error {
	if row.Version <= expectedVersion {
		return domainerrors.ErrStaleJobState
	}
	result := tx.Model(&jobModel{}).
		Where("job_id = ? AND version = ?", row.JobID, expectedVersion).
		Updates(row.updates())
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&jobModel{}).Where("job_id = ?", row.JobID).Count(&count).Error; err != nil {
		return mapError(err)
	}
	if count == 0 {
		return domainerrors.ErrJobNotFound
	}
	return domainerrors.ErrStaleJobState
}

func creditProfile(tx *gorm.DB, credit entities.RewardCredit, now time.Time) error {
	var row profileModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", credit.UserID).
		First(&row).
		Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile := entities.UserProfile{
			UserID: credit.UserID,
			Role:   entities.UserRoleParticipant,
			Badges: map[string]struct{}{},
		}.Apply(credit, now)
		created, err := profileModelFromEntity(profile)
		if err != nil {
			return err
		}
		if err := tx.Create(&created).Error; err != nil {
			if isUniqueViolation(err) {
				// A concurrent first credit won; retry the whole commit.
				return domainerrors.Transient(err)
			}
			return mapError(err)
		}
		return nil
	case err != nil:
		return mapError(err)
	}

	current, err := row.toEntity()
	if err != nil {
		return err
	}
	next, err := profileModelFromEntity(current.Apply(credit, now))
	if err != nil {
		return err
	}
	return mapError(tx.Model(&profileModel{}).
		Where("user_id = ?", credit.UserID).
		Updates(map[string]any{
			"currency_balance":     next.CurrencyBalance,
			"xp_balance":           next.XPBalance,
			"completed_jobs_count": next.CompletedJobsCount,
			"badges":               next.Badges,
			"updated_at":           next.UpdatedAt,
		}).Error)
}

func appendOutbox(tx *gorm.DB, events []ports.EventEnvelope) error {
	for _, envelope := range events {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		row := outboxModel{
			OutboxID:     strings.TrimSpace(envelope.EventID),
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}
		if row.OutboxID == "" {
			row.OutboxID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		if err := tx.Create(&row).Error; err != nil {
			return mapError(err)
		}
	}
	return nil
}
