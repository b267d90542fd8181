package commands

import (
	"context"
	"log/slog"
	"strings"

	application "contracthub/contexts/progression/job-service/application"
	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
	eventsv1 "contracthub/contracts/gen/events/v1"
)

type StartJobCommand struct {
	UserID     string
	ContractID string
}

type StartJobUseCase struct {
	Jobs    ports.JobRepository
	Catalog ports.ContractCatalog
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Retry   application.RetryPolicy
	Logger  *slog.Logger
}

func (uc StartJobUseCase) Execute(ctx context.Context, cmd StartJobCommand) (entities.Job, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	contractID := strings.TrimSpace(cmd.ContractID)
	if userID == "" || contractID == "" {
		return entities.Job{}, domainerrors.ErrInvalidInput
	}

	var job entities.Job
	err := uc.Retry.Do(ctx, func(ctx context.Context) error {
		contract, err := uc.Catalog.GetContract(ctx, contractID)
		if err != nil {
			return err
		}
		if !contract.IsOpen() {
			return domainerrors.ErrContractClosed
		}

		now := application.Now(uc.Clock)
		created, err := entities.NewJob(uc.IDGen.JobID(userID, contract.ContractID), userID, contract, now)
		if err != nil {
			return err
		}

		builder := newEnvelopeBuilder(uc.IDGen, created, now)
		builder.add(ctx, eventsv1.EventJobStarted, map[string]any{
			"contract_version": created.ContractVersion,
			"stage_count":      created.StageCount,
			"started_at":       created.StartedAt,
		})
		events, err := builder.build()
		if err != nil {
			return err
		}
		if err := uc.Jobs.CreateJob(ctx, created, events); err != nil {
			return err
		}
		job = created
		return nil
	})
	if err != nil {
		logger.Warn("job start failed",
			"event", "job_start_failed",
			"module", "progression/job-service",
			"layer", "application",
			"user_id", userID,
			"contract_id", contractID,
			"error", err.Error(),
		)
		return entities.Job{}, err
	}

	logger.Info("job started",
		"event", "job_started",
		"module", "progression/job-service",
		"layer", "application",
		"job_id", job.JobID,
		"user_id", job.UserID,
		"contract_id", job.ContractID,
		"stage_count", job.StageCount,
	)
	return job, nil
}
