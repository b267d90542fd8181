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

type SubmitStageCommand struct {
	JobID       string
	ActorID     string
	StageNumber int
	Content     string
}

type SubmitStageUseCase struct {
	Jobs   ports.JobRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Retry  application.RetryPolicy
	Logger *slog.Logger
}

func (uc SubmitStageUseCase) Execute(ctx context.Context, cmd SubmitStageCommand) (entities.Job, error) {
	logger := application.ResolveLogger(uc.Logger)
	jobID := strings.TrimSpace(cmd.JobID)
	if jobID == "" {
		return entities.Job{}, domainerrors.ErrInvalidInput
	}
	if strings.TrimSpace(cmd.Content) == "" {
		return entities.Job{}, domainerrors.ErrEmptySubmission
	}

	var submitted entities.Job
	err := uc.Retry.Do(ctx, func(ctx context.Context) error {
		current, err := uc.Jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if actor := strings.TrimSpace(cmd.ActorID); actor != "" && actor != current.UserID {
			return domainerrors.ErrUnauthorizedActor
		}

		now := application.Now(uc.Clock)
		next, err := current.Submit(cmd.StageNumber, cmd.Content, now)
		if err != nil {
			return err
		}

		builder := newEnvelopeBuilder(uc.IDGen, next, now)
		builder.add(ctx, eventsv1.EventJobStageSubmitted, map[string]any{
			"stage_number": cmd.StageNumber,
			"attempt":      next.Stages[cmd.StageNumber].Attempts,
			"submitted_at": now,
		})
		events, err := builder.build()
		if err != nil {
			return err
		}
		if err := uc.Jobs.UpdateJob(ctx, current.Version, next, events); err != nil {
			return err
		}
		submitted = next
		return nil
	})
	if err != nil {
		return entities.Job{}, err
	}

	logger.Info("job stage submitted",
		"event", "job_stage_submitted",
		"module", "progression/job-service",
		"layer", "application",
		"job_id", submitted.JobID,
		"stage_number", cmd.StageNumber,
	)
	return submitted, nil
}
