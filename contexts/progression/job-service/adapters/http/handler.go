package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"contracthub/contexts/progression/job-service/application/commands"
	"contracthub/contexts/progression/job-service/application/queries"
	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
	httptransport "contracthub/contexts/progression/job-service/transport/http"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries per-field validator tags. It unwraps to
// ErrInvalidInput so callers that only check the kind still see a 400.
type ValidationError struct {
	Fields map[string]string
}

func (e ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+e.Fields[name])
	}
	return domainerrors.ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (e ValidationError) Unwrap() error {
	return domainerrors.ErrInvalidInput
}

type Handler struct {
	StartJob        commands.StartJobUseCase
	SubmitStage     commands.SubmitStageUseCase
	ReviewStage     commands.ReviewStageUseCase
	RegisterProfile commands.RegisterProfileUseCase
	Queries         queries.QueryUseCase
	Validate        *validator.Validate
	Logger          *slog.Logger
}

func (h Handler) validate(req any) error {
	validate := h.Validate
	if validate == nil {
		validate = defaultValidator
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, item := range validationErrors {
		fields[strings.ToLower(item.Field())] = item.Tag()
	}
	return ValidationError{Fields: fields}
}

var defaultValidator = validator.New()

func (h Handler) StartJobHandler(
	ctx context.Context,
	userID string,
	req httptransport.StartJobRequest,
) (httptransport.JobResponse, error) {
	if err := h.validate(req); err != nil {
		return httptransport.JobResponse{}, err
	}
	job, err := h.StartJob.Execute(ctx, commands.StartJobCommand{
		UserID:     userID,
		ContractID: req.ContractID,
	})
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return httptransport.JobResponse{Job: mapJob(job)}, nil
}

func (h Handler) GetJobHandler(ctx context.Context, jobID string) (httptransport.JobResponse, error) {
	job, err := h.Queries.GetJob(ctx, jobID)
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return httptransport.JobResponse{Job: mapJob(job)}, nil
}

func (h Handler) ListJobsHandler(
	ctx context.Context,
	userID string,
	contractID string,
	status string,
) (httptransport.ListJobsResponse, error) {
	filter := ports.JobFilter{
		UserID:     userID,
		ContractID: contractID,
	}
	if strings.TrimSpace(status) != "" {
		parsed, err := entities.ParseJobStatus(status)
		if err != nil {
			return httptransport.ListJobsResponse{}, ValidationError{Fields: map[string]string{"status": "oneof"}}
		}
		filter.Status = parsed
	}
	items, err := h.Queries.ListJobs(ctx, filter)
	if err != nil {
		return httptransport.ListJobsResponse{}, err
	}
	result := make([]httptransport.JobDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapJob(item))
	}
	return httptransport.ListJobsResponse{Items: result}, nil
}

func (h Handler) SubmitStageHandler(
	ctx context.Context,
	userID string,
	jobID string,
	stageNumber int,
	req httptransport.SubmitStageRequest,
) (httptransport.JobResponse, error) {
	if err := h.validate(req); err != nil {
		if strings.TrimSpace(req.Content) == "" {
			return httptransport.JobResponse{}, domainerrors.ErrEmptySubmission
		}
		return httptransport.JobResponse{}, err
	}
	job, err := h.SubmitStage.Execute(ctx, commands.SubmitStageCommand{
		JobID:       jobID,
		ActorID:     userID,
		StageNumber: stageNumber,
		Content:     req.Content,
	})
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return httptransport.JobResponse{Job: mapJob(job)}, nil
}

func (h Handler) ApproveStageHandler(
	ctx context.Context,
	reviewerID string,
	jobID string,
	req httptransport.ApproveStageRequest,
) (httptransport.ApproveStageResponse, error) {
	if err := h.validate(req); err != nil {
		return httptransport.ApproveStageResponse{}, err
	}
	result, err := h.ReviewStage.Approve(ctx, commands.ApproveStageCommand{
		JobID:       jobID,
		ReviewerID:  reviewerID,
		StageNumber: req.StageNumber,
	})
	if err != nil {
		return httptransport.ApproveStageResponse{}, err
	}
	return httptransport.ApproveStageResponse{
		Job:        mapJob(result.Job),
		Settlement: mapSettlement(result.Settlement),
		Replayed:   result.Replayed,
	}, nil
}

func (h Handler) RejectStageHandler(
	ctx context.Context,
	reviewerID string,
	jobID string,
	req httptransport.RejectStageRequest,
) (httptransport.JobResponse, error) {
	if err := h.validate(req); err != nil {
		return httptransport.JobResponse{}, err
	}
	job, err := h.ReviewStage.Reject(ctx, commands.RejectStageCommand{
		JobID:      jobID,
		ReviewerID: reviewerID,
		Feedback:   req.Feedback,
	})
	if err != nil {
		return httptransport.JobResponse{}, err
	}
	return httptransport.JobResponse{Job: mapJob(job)}, nil
}

func (h Handler) ListSettlementsHandler(ctx context.Context, jobID string) (httptransport.ListSettlementsResponse, error) {
	items, err := h.Queries.ListSettlements(ctx, jobID)
	if err != nil {
		return httptransport.ListSettlementsResponse{}, err
	}
	result := make([]httptransport.SettlementDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapSettlement(item))
	}
	return httptransport.ListSettlementsResponse{Items: result}, nil
}

func (h Handler) GetProfileHandler(ctx context.Context, userID string) (httptransport.ProfileResponse, error) {
	profile, err := h.Queries.GetProfile(ctx, userID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return httptransport.ProfileResponse{Profile: mapProfile(profile)}, nil
}

func (h Handler) RegisterProfileHandler(
	ctx context.Context,
	userID string,
	req httptransport.RegisterProfileRequest,
) (httptransport.ProfileResponse, error) {
	if err := h.validate(req); err != nil {
		return httptransport.ProfileResponse{}, err
	}
	profile, err := h.RegisterProfile.Execute(ctx, commands.RegisterProfileCommand{
		UserID:      userID,
		DisplayName: req.DisplayName,
		ClassID:     req.ClassID,
		OrgID:       req.OrgID,
		Role:        req.Role,
	})
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return httptransport.ProfileResponse{Profile: mapProfile(profile)}, nil
}

func mapJob(job entities.Job) httptransport.JobDTO {
	stages := make([]httptransport.StageDTO, 0, job.StageCount)
	for number := 1; number <= job.StageCount; number++ {
		stage, ok := job.Stages[number]
		if !ok {
			continue
		}
		stages = append(stages, httptransport.StageDTO{
			StageNumber:       stage.StageNumber,
			Name:              stage.Name,
			RequirementText:   stage.RequirementText,
			PayoutXP:          stage.PayoutXP,
			PayoutCurrency:    stage.PayoutCurrency,
			Status:            string(stage.Status),
			SubmissionContent: stage.SubmissionContent,
			SubmittedAt:       formatOptionalTime(stage.SubmittedAt),
			Feedback:          stage.Feedback,
			ReviewedBy:        stage.ReviewedBy,
			ReviewedAt:        formatOptionalTime(stage.ReviewedAt),
			ApprovedAt:        formatOptionalTime(stage.ApprovedAt),
			Attempts:          stage.Attempts,
		})
	}
	return httptransport.JobDTO{
		JobID:              job.JobID,
		UserID:             job.UserID,
		ContractID:         job.ContractID,
		ContractVersion:    job.ContractVersion,
		ContractTitle:      job.ContractTitle,
		Status:             string(job.Status),
		CurrentStageNumber: job.CurrentStageNumber,
		StageCount:         job.StageCount,
		Stages:             stages,
		StartedAt:          job.StartedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          job.UpdatedAt.UTC().Format(time.RFC3339),
		CompletedAt:        formatOptionalTime(job.CompletedAt),
		Version:            job.Version,
	}
}

func mapSettlement(record entities.SettlementRecord) httptransport.SettlementDTO {
	rolls := make([]httptransport.RandomRollDTO, 0, len(record.Breakdown.RandomRolls))
	for _, roll := range record.Breakdown.RandomRolls {
		rolls = append(rolls, httptransport.RandomRollDTO{
			EventID: roll.EventID,
			Min:     roll.Min,
			Max:     roll.Max,
			Value:   roll.Value,
		})
	}
	applied := record.AppliedEventIDs
	if applied == nil {
		applied = []string{}
	}
	return httptransport.SettlementDTO{
		JobID:           record.JobID,
		StageNumber:     record.StageNumber,
		ReviewerID:      record.ReviewerID,
		BaseXP:          record.BaseXP,
		BaseCurrency:    record.BaseCurrency,
		FinalXP:         record.FinalXP,
		FinalCurrency:   record.FinalCurrency,
		BonusXP:         record.BonusXP,
		BonusCurrency:   record.BonusCurrency,
		XPPercent:       record.Breakdown.XPPercent,
		CurrencyPercent: record.Breakdown.CurrencyPercent,
		FlatCurrency:    record.Breakdown.FlatCurrency,
		RandomCurrency:  record.Breakdown.RandomCurrency,
		RandomRolls:     rolls,
		AppliedEventIDs: applied,
		SkippedEventIDs: record.Breakdown.SkippedEventIDs,
		SettledAt:       record.SettledAt.UTC().Format(time.RFC3339),
	}
}

func mapProfile(profile entities.UserProfile) httptransport.ProfileDTO {
	return httptransport.ProfileDTO{
		UserID:             profile.UserID,
		DisplayName:        profile.DisplayName,
		ClassID:            profile.ClassID,
		OrgID:              profile.OrgID,
		Role:               string(profile.Role),
		CurrencyBalance:    profile.CurrencyBalance,
		XPBalance:          profile.XPBalance,
		CompletedJobsCount: profile.CompletedJobsCount,
		Badges:             profile.BadgeList(),
	}
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
