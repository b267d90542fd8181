package services

import "contracthub/contexts/rewards/reward-engine/domain/entities"

// RandomSource draws one integer uniformly from [min, max].
type RandomSource interface {
	Int64Inclusive(min int64, max int64) int64
}

// Settle computes the payout for one approved submission. It is pure apart
// from the draws taken from rng, one per applied event with a usable range.
func Settle(
	baseXP int64,
	baseCurrency int64,
	activeEvents []entities.Event,
	kind entities.SubmissionType,
	rng RandomSource,
) entities.Settlement {
	result := entities.Settlement{
		BaseXP:          baseXP,
		BaseCurrency:    baseCurrency,
		AppliedEventIDs: []string{},
	}

	for _, event := range activeEvents {
		if !AppliesToType(event, kind) {
			continue
		}
		result.AppliedEventIDs = append(result.AppliedEventIDs, event.EventID)
		result.XPPercent += event.XPPercent
		result.CurrencyPercent += event.CurrencyPercent
		result.FlatCurrency += event.FlatCurrencyBonus

		bonus := event.RandomCurrencyBonus
		if bonus == nil {
			continue
		}
		if !bonus.Valid() || rng == nil {
			result.SkippedEventIDs = append(result.SkippedEventIDs, event.EventID)
			continue
		}
		value := rng.Int64Inclusive(bonus.Min, bonus.Max)
		result.RandomCurrency += value
		result.RandomRolls = append(result.RandomRolls, entities.RandomRoll{
			EventID: event.EventID,
			Min:     bonus.Min,
			Max:     bonus.Max,
			Value:   value,
		})
	}

	result.FinalXP = applyPercent(baseXP, result.XPPercent)
	result.FinalCurrency = applyPercent(baseCurrency, result.CurrencyPercent) + result.FlatCurrency + result.RandomCurrency
	if result.FinalCurrency < 0 {
		result.FinalCurrency = 0
	}
	result.BonusXP = clampZero(result.FinalXP - baseXP)
	result.BonusCurrency = clampZero(result.FinalCurrency - baseCurrency)
	return result
}

// applyPercent returns ceil(base * (100 + percent) / 100) in integer math.
// A combined factor at or below zero pays nothing.
func applyPercent(base int64, percent int) int64 {
	scaled := base * int64(100+percent)
	if scaled <= 0 {
		return 0
	}
	return (scaled + 99) / 100
}

func clampZero(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value
}
