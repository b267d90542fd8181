package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "contracthub/contexts/progression/job-service/application"
	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
	eventsv1 "contracthub/contracts/gen/events/v1"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "progression/job-service"

type ApproveStageCommand struct {
	JobID      string
	ReviewerID string
	// StageNumber is optional. When set, a repeated approval of an already
	// settled stage replays the recorded settlement instead of failing.
	StageNumber int
}

type RejectStageCommand struct {
	JobID      string
	ReviewerID string
	Feedback   string
}

type ApproveStageResult struct {
	Job        entities.Job
	Settlement entities.SettlementRecord
	Replayed   bool
}

type ReviewStageUseCase struct {
	Jobs        ports.JobRepository
	Profiles    ports.ProfileRepository
	Claims      ports.ClaimRepository
	Settlements ports.SettlementRepository
	Rewards     ports.RewardSettler
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Retry       application.RetryPolicy
	Metrics     *application.ApprovalMetrics
	Logger      *slog.Logger
}

func (uc ReviewStageUseCase) Approve(ctx context.Context, cmd ApproveStageCommand) (ApproveStageResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	jobID := strings.TrimSpace(cmd.JobID)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)
	if jobID == "" || cmd.StageNumber < 0 {
		return ApproveStageResult{}, domainerrors.ErrInvalidInput
	}
	if reviewerID == "" {
		return ApproveStageResult{}, domainerrors.ErrUnauthorizedActor
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "approve_stage",
		trace.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("reviewer.id", reviewerID),
		),
	)
	defer span.End()

	// settleStage names the stage whose settlement, once recorded, answers
	// this call. A commit that fails transiently may still have landed, so
	// the next attempt looks for its settlement before approving again.
	settleStage := cmd.StageNumber
	var result ApproveStageResult
	err := uc.Retry.Do(ctx, func(ctx context.Context) error {
		if settleStage > 0 {
			replayed, found, err := uc.replay(ctx, jobID, settleStage)
			if err != nil {
				return err
			}
			if found {
				result = replayed
				return nil
			}
		}

		current, err := uc.Jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if reviewerID == current.UserID {
			return domainerrors.ErrUnauthorizedActor
		}
		if cmd.StageNumber > 0 && cmd.StageNumber != current.CurrentStageNumber {
			return domainerrors.ErrWrongStage
		}

		now := application.Now(uc.Clock)
		next, approved, err := current.Approve(reviewerID, now)
		if err != nil {
			return err
		}

		outcome, err := uc.settle(ctx, current, approved, now)
		if err != nil {
			return err
		}

		settlement := entities.SettlementRecord{
			JobID:           current.JobID,
			StageNumber:     approved.StageNumber,
			UserID:          current.UserID,
			ReviewerID:      reviewerID,
			BaseXP:          approved.PayoutXP,
			BaseCurrency:    approved.PayoutCurrency,
			FinalXP:         outcome.FinalXP,
			FinalCurrency:   outcome.FinalCurrency,
			BonusXP:         outcome.BonusXP,
			BonusCurrency:   outcome.BonusCurrency,
			Breakdown:       outcome.Breakdown,
			AppliedEventIDs: append([]string(nil), outcome.AppliedEventIDs...),
			ClaimedEventIDs: append([]string(nil), outcome.OneTimeEventIDs...),
			SettledAt:       now,
		}
		credit := entities.RewardCredit{
			UserID:       current.UserID,
			XP:           outcome.FinalXP,
			Currency:     outcome.FinalCurrency,
			CompletedJob: approved.CompletedJob,
		}
		if approved.CompletedJob {
			credit.Badge = current.CompletionBadge
		}
		claims := make([]entities.EventClaim, 0, len(outcome.OneTimeEventIDs))
		for _, eventID := range outcome.OneTimeEventIDs {
			claims = append(claims, entities.EventClaim{
				UserID:      current.UserID,
				EventID:     eventID,
				JobID:       current.JobID,
				StageNumber: approved.StageNumber,
				ClaimedAt:   now,
			})
		}

		builder := newEnvelopeBuilder(uc.IDGen, next, now)
		builder.add(ctx, eventsv1.EventJobStageApproved, map[string]any{
			"stage_number": approved.StageNumber,
			"reviewer_id":  reviewerID,
		})
		builder.add(ctx, eventsv1.EventProfileRewardCredited, map[string]any{
			"stage_number":      approved.StageNumber,
			"xp":                outcome.FinalXP,
			"currency":          outcome.FinalCurrency,
			"bonus_xp":          outcome.BonusXP,
			"bonus_currency":    outcome.BonusCurrency,
			"applied_event_ids": outcome.AppliedEventIDs,
		})
		if approved.CompletedJob {
			builder.add(ctx, eventsv1.EventJobCompleted, map[string]any{
				"completed_at": now,
				"badge":        credit.Badge,
			})
		}
		events, err := builder.build()
		if err != nil {
			return err
		}

		if err := uc.Jobs.CommitApproval(ctx, ports.ApprovalCommit{
			ExpectedVersion: current.Version,
			Job:             next,
			Settlement:      settlement,
			Credit:          credit,
			Claims:          claims,
			Events:          events,
		}); err != nil {
			if domainerrors.IsTransient(err) {
				settleStage = approved.StageNumber
			}
			return err
		}
		result = ApproveStageResult{Job: next, Settlement: settlement}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		uc.Metrics.RecordFailure(ctx)
		logger.Warn("job stage approval failed",
			"event", "job_stage_approve_failed",
			"module", "progression/job-service",
			"layer", "application",
			"job_id", jobID,
			"reviewer_id", reviewerID,
			"error", err.Error(),
		)
		return ApproveStageResult{}, err
	}

	span.SetAttributes(
		attribute.Int("stage.number", result.Settlement.StageNumber),
		attribute.Bool("settlement.replayed", result.Replayed),
	)
	uc.Metrics.RecordApproval(ctx,
		result.Settlement.BonusXP,
		result.Settlement.BonusCurrency,
		result.Job.Status == entities.JobStatusCompleted,
		result.Replayed,
	)
	logger.Info("job stage approved",
		"event", "job_stage_approved",
		"module", "progression/job-service",
		"layer", "application",
		"job_id", result.Job.JobID,
		"stage_number", result.Settlement.StageNumber,
		"final_xp", result.Settlement.FinalXP,
		"final_currency", result.Settlement.FinalCurrency,
		"job_status", string(result.Job.Status),
		"replayed", result.Replayed,
	)
	return result, nil
}

func (uc ReviewStageUseCase) Reject(ctx context.Context, cmd RejectStageCommand) (entities.Job, error) {
	logger := application.ResolveLogger(uc.Logger)
	jobID := strings.TrimSpace(cmd.JobID)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)
	if jobID == "" {
		return entities.Job{}, domainerrors.ErrInvalidInput
	}
	if reviewerID == "" {
		return entities.Job{}, domainerrors.ErrUnauthorizedActor
	}

	var returned entities.Job
	err := uc.Retry.Do(ctx, func(ctx context.Context) error {
		current, err := uc.Jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if reviewerID == current.UserID {
			return domainerrors.ErrUnauthorizedActor
		}

		now := application.Now(uc.Clock)
		next, err := current.Reject(reviewerID, cmd.Feedback, now)
		if err != nil {
			return err
		}

		builder := newEnvelopeBuilder(uc.IDGen, next, now)
		builder.add(ctx, eventsv1.EventJobStageReturned, map[string]any{
			"stage_number": next.CurrentStageNumber,
			"reviewer_id":  reviewerID,
			"feedback":     next.Stages[next.CurrentStageNumber].Feedback,
		})
		events, err := builder.build()
		if err != nil {
			return err
		}
		if err := uc.Jobs.UpdateJob(ctx, current.Version, next, events); err != nil {
			return err
		}
		returned = next
		return nil
	})
	if err != nil {
		return entities.Job{}, err
	}

	logger.Info("job stage returned",
		"event", "job_stage_returned",
		"module", "progression/job-service",
		"layer", "application",
		"job_id", returned.JobID,
		"stage_number", returned.CurrentStageNumber,
	)
	return returned, nil
}

func (uc ReviewStageUseCase) replay(ctx context.Context, jobID string, stageNumber int) (ApproveStageResult, bool, error) {
	if uc.Settlements == nil {
		return ApproveStageResult{}, false, nil
	}
	settlement, err := uc.Settlements.GetSettlement(ctx, jobID, stageNumber)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSettlementNotFound) {
			return ApproveStageResult{}, false, nil
		}
		return ApproveStageResult{}, false, err
	}
	job, err := uc.Jobs.GetJob(ctx, jobID)
	if err != nil {
		return ApproveStageResult{}, false, err
	}
	return ApproveStageResult{Job: job, Settlement: settlement, Replayed: true}, true, nil
}

func (uc ReviewStageUseCase) settle(
	ctx context.Context,
	job entities.Job,
	approved entities.ApprovedStage,
	now time.Time,
) (ports.RewardOutcome, error) {
	if uc.Rewards == nil {
		return ports.RewardOutcome{
			FinalXP:       approved.PayoutXP,
			FinalCurrency: approved.PayoutCurrency,
		}, nil
	}

	profile := entities.UserProfile{UserID: job.UserID}
	if uc.Profiles != nil {
		loaded, err := uc.Profiles.GetProfile(ctx, job.UserID)
		switch {
		case err == nil:
			profile = loaded
		case !errors.Is(err, domainerrors.ErrProfileNotFound):
			return ports.RewardOutcome{}, err
		}
	}

	var claimed []string
	if uc.Claims != nil {
		ids, err := uc.Claims.ListClaimedEventIDs(ctx, job.UserID)
		if err != nil {
			return ports.RewardOutcome{}, err
		}
		claimed = ids
	}

	return uc.Rewards.Settle(ctx, ports.RewardRequest{
		UserID:          job.UserID,
		ClassID:         profile.ClassID,
		OrgID:           profile.OrgID,
		SubmissionType:  entities.SubmissionTypeContractStage,
		BaseXP:          approved.PayoutXP,
		BaseCurrency:    approved.PayoutCurrency,
		ClaimedEventIDs: claimed,
		Now:             now,
	})
}
