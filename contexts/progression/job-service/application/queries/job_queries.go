package queries

import (
	"context"
	"log/slog"
	"strings"

	application "contracthub/contexts/progression/job-service/application"
	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
)

type QueryUseCase struct {
	Jobs        ports.JobRepository
	Profiles    ports.ProfileRepository
	Settlements ports.SettlementRepository
	Logger      *slog.Logger
}

func (uc QueryUseCase) GetJob(ctx context.Context, jobID string) (entities.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return entities.Job{}, domainerrors.ErrInvalidInput
	}
	return uc.Jobs.GetJob(ctx, jobID)
}

func (uc QueryUseCase) GetJobFor(ctx context.Context, userID string, contractID string) (entities.Job, error) {
	userID = strings.TrimSpace(userID)
	contractID = strings.TrimSpace(contractID)
	if userID == "" || contractID == "" {
		return entities.Job{}, domainerrors.ErrInvalidInput
	}
	return uc.Jobs.GetJobByUserContract(ctx, userID, contractID)
}

func (uc QueryUseCase) ListJobs(ctx context.Context, filter ports.JobFilter) ([]entities.Job, error) {
	items, err := uc.Jobs.ListJobs(ctx, filter)
	if err != nil {
		application.ResolveLogger(uc.Logger).Error("job list failed",
			"event", "job_list_failed",
			"module", "progression/job-service",
			"layer", "application",
			"user_id", filter.UserID,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}

func (uc QueryUseCase) GetProfile(ctx context.Context, userID string) (entities.UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.UserProfile{}, domainerrors.ErrInvalidInput
	}
	return uc.Profiles.GetProfile(ctx, userID)
}

func (uc QueryUseCase) ListProfiles(ctx context.Context, filter ports.ProfileFilter) ([]entities.UserProfile, error) {
	return uc.Profiles.ListProfiles(ctx, filter)
}

func (uc QueryUseCase) ListSettlements(ctx context.Context, jobID string) ([]entities.SettlementRecord, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Jobs.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return uc.Settlements.ListSettlements(ctx, jobID)
}

func (uc QueryUseCase) GetSettlement(ctx context.Context, jobID string, stageNumber int) (entities.SettlementRecord, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" || stageNumber <= 0 {
		return entities.SettlementRecord{}, domainerrors.ErrInvalidInput
	}
	return uc.Settlements.GetSettlement(ctx, jobID, stageNumber)
}
