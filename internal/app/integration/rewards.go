package integration

import (
	"context"
	"errors"

	jobentities "contracthub/contexts/progression/job-service/domain/entities"
	joberrors "contracthub/contexts/progression/job-service/domain/errors"
	jobports "contracthub/contexts/progression/job-service/ports"
	rewardapp "contracthub/contexts/rewards/reward-engine/application"
	rewarderrors "contracthub/contexts/rewards/reward-engine/domain/errors"
)

// RewardSettler lets job-service settle approvals through reward-engine.
type RewardSettler struct {
	Service rewardapp.Service
}

var _ jobports.RewardSettler = RewardSettler{}

func (b RewardSettler) Settle(ctx context.Context, request jobports.RewardRequest) (jobports.RewardOutcome, error) {
	result, err := b.Service.SettleReward(ctx, rewardapp.SettleRewardInput{
		UserID:          request.UserID,
		ClassID:         request.ClassID,
		OrgID:           request.OrgID,
		SubmissionType:  string(request.SubmissionType),
		BaseXP:          request.BaseXP,
		BaseCurrency:    request.BaseCurrency,
		ClaimedEventIDs: request.ClaimedEventIDs,
		Now:             request.Now,
	})
	if err != nil {
		return jobports.RewardOutcome{}, translateRewardError(err)
	}

	settlement := result.Settlement
	rolls := make([]jobentities.RandomRoll, 0, len(settlement.RandomRolls))
	for _, roll := range settlement.RandomRolls {
		rolls = append(rolls, jobentities.RandomRoll{
			EventID: roll.EventID,
			Min:     roll.Min,
			Max:     roll.Max,
			Value:   roll.Value,
		})
	}
	return jobports.RewardOutcome{
		FinalXP:       settlement.FinalXP,
		FinalCurrency: settlement.FinalCurrency,
		BonusXP:       settlement.BonusXP,
		BonusCurrency: settlement.BonusCurrency,
		Breakdown: jobentities.SettlementBreakdown{
			XPPercent:       settlement.XPPercent,
			CurrencyPercent: settlement.CurrencyPercent,
			FlatCurrency:    settlement.FlatCurrency,
			RandomCurrency:  settlement.RandomCurrency,
			RandomRolls:     rolls,
			SkippedEventIDs: append([]string(nil), settlement.SkippedEventIDs...),
		},
		AppliedEventIDs: append([]string(nil), settlement.AppliedEventIDs...),
		OneTimeEventIDs: append([]string(nil), result.OneTimeEventIDs...),
	}, nil
}

// translateRewardError keeps the error kind intact across the context
// boundary so retries and HTTP mapping behave the same.
func translateRewardError(err error) error {
	switch {
	case errors.Is(err, rewarderrors.ErrTransientStore):
		return joberrors.Transient(err)
	case errors.Is(err, rewarderrors.ErrValidation):
		return errors.Join(joberrors.ErrInvalidInput, err)
	case errors.Is(err, rewarderrors.ErrNotFound):
		return errors.Join(joberrors.ErrNotFound, err)
	}
	return err
}
