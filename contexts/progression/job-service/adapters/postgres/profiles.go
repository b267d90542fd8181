package postgresadapter

import (
	"context"
	"errors"
	"strings"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetProfile(ctx context.Context, userID string) (entities.UserProfile, error) {
	var row profileModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserProfile{}, domainerrors.ErrProfileNotFound
		}
		return entities.UserProfile{}, mapError(err)
	}
	return row.toEntity()
}

// UpsertProfile writes descriptive columns only. Balances and badges on an
// existing row are untouched.
func (r *Repository) UpsertProfile(ctx context.Context, profile entities.UserProfile) error {
	if strings.TrimSpace(profile.UserID) == "" {
		return domainerrors.ErrInvalidInput
	}
	row, err := profileModelFromEntity(profile)
	if err != nil {
		return err
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "class_id", "org_id", "role", "updated_at"}),
		}).
		Create(&row).
		Error
	return mapError(err)
}

func (r *Repository) ListProfiles(ctx context.Context, filter ports.ProfileFilter) ([]entities.UserProfile, error) {
	tx := r.db.WithContext(ctx).Model(&profileModel{})
	if classID := strings.TrimSpace(filter.ClassID); classID != "" {
		tx = tx.Where("class_id = ?", classID)
	}
	if len(filter.UserIDs) > 0 {
		tx = tx.Where("user_id IN ?", filter.UserIDs)
	}

	var rows []profileModel
	if err := tx.Order("user_id ASC").Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}
	items := make([]entities.UserProfile, 0, len(rows))
	for _, row := range rows {
		profile, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, profile)
	}
	return items, nil
}

func (r *Repository) ListClaimedEventIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&eventClaimModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("event_id ASC").
		Pluck("event_id", &ids).
		Error; err != nil {
		return nil, mapError(err)
	}
	return ids, nil
}

func (r *Repository) GetSettlement(ctx context.Context, jobID string, stageNumber int) (entities.SettlementRecord, error) {
	var row settlementModel
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND stage_number = ?", strings.TrimSpace(jobID), stageNumber).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SettlementRecord{}, domainerrors.ErrSettlementNotFound
		}
		return entities.SettlementRecord{}, mapError(err)
	}
	return row.toEntity()
}

func (r *Repository) ListSettlements(ctx context.Context, jobID string) ([]entities.SettlementRecord, error) {
	var rows []settlementModel
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", strings.TrimSpace(jobID)).
		Order("stage_number ASC").
		Find(&rows).
		Error; err != nil {
		return nil, mapError(err)
	}
	items := make([]entities.SettlementRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, record)
	}
	return items, nil
}
