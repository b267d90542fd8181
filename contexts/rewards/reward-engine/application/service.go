package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"contracthub/contexts/rewards/reward-engine/domain/entities"
	domainerrors "contracthub/contexts/rewards/reward-engine/domain/errors"
	"contracthub/contexts/rewards/reward-engine/domain/services"
	"contracthub/contexts/rewards/reward-engine/ports"
)

type SettleRewardInput struct {
	UserID          string
	ClassID         string
	OrgID           string
	SubmissionType  string
	BaseXP          int64
	BaseCurrency    int64
	ClaimedEventIDs []string
	Now             time.Time
}

type SettleRewardResult struct {
	Settlement entities.Settlement
	// OneTimeEventIDs were applied and must be recorded as claimed by the
	// caller in the same write that credits the payout.
	OneTimeEventIDs []string
}

type Service struct {
	Catalog ports.EventCatalog
	Random  ports.RandomSource
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (s Service) SettleReward(ctx context.Context, input SettleRewardInput) (SettleRewardResult, error) {
	logger := resolveLogger(s.Logger)
	if input.BaseXP < 0 || input.BaseCurrency < 0 {
		return SettleRewardResult{}, domainerrors.ErrNegativeBase
	}
	kind, err := entities.ParseSubmissionType(input.SubmissionType)
	if err != nil {
		return SettleRewardResult{}, err
	}
	now := input.Now
	if now.IsZero() {
		now = s.now()
	}

	candidates, err := s.resolve(ctx, now, input.ClassID, input.OrgID, kind)
	if err != nil {
		return SettleRewardResult{}, err
	}
	candidates = services.ExcludeClaimed(candidates, input.ClaimedEventIDs)

	settlement := services.Settle(input.BaseXP, input.BaseCurrency, candidates, kind, s.Random)

	applied := make(map[string]struct{}, len(settlement.AppliedEventIDs))
	for _, eventID := range settlement.AppliedEventIDs {
		applied[eventID] = struct{}{}
	}
	oneTime := make([]string, 0)
	for _, event := range candidates {
		if _, ok := applied[event.EventID]; ok && event.OneTimePerUser {
			oneTime = append(oneTime, event.EventID)
		}
	}

	logger.Info("reward settled",
		"event", "reward_settled",
		"module", "rewards/reward-engine",
		"layer", "application",
		"user_id", strings.TrimSpace(input.UserID),
		"submission_type", string(kind),
		"base_xp", input.BaseXP,
		"base_currency", input.BaseCurrency,
		"final_xp", settlement.FinalXP,
		"final_currency", settlement.FinalCurrency,
		"applied_events", len(settlement.AppliedEventIDs),
	)
	return SettleRewardResult{Settlement: settlement, OneTimeEventIDs: oneTime}, nil
}

// ListActiveEvents returns the events a participant would currently see.
// An empty submissionType lists events for every category.
func (s Service) ListActiveEvents(
	ctx context.Context,
	classID string,
	orgID string,
	submissionType string,
) ([]entities.Event, error) {
	now := s.now()
	if strings.TrimSpace(submissionType) == "" || entities.IsAllTypes(submissionType) {
		events, err := s.Catalog.ListEvents(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]entities.Event, 0, len(events))
		for _, event := range events {
			if services.IsActive(event, now) && services.AppliesToScope(event, classID, orgID) {
				out = append(out, event)
			}
		}
		return out, nil
	}
	kind, err := entities.ParseSubmissionType(submissionType)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, now, classID, orgID, kind)
}

func (s Service) resolve(
	ctx context.Context,
	now time.Time,
	classID string,
	orgID string,
	kind entities.SubmissionType,
) ([]entities.Event, error) {
	events, err := s.Catalog.ListEvents(ctx)
	if err != nil {
		resolveLogger(s.Logger).Error("reward event catalog read failed",
			"event", "reward_event_catalog_failed",
			"module", "rewards/reward-engine",
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}
	return services.ActiveEventsFor(events, now, classID, orgID, kind), nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
