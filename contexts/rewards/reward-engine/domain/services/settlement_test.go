package services

import (
	"reflect"
	"testing"

	"contracthub/contexts/rewards/reward-engine/domain/entities"
)

type fixedDraw int64

func (f fixedDraw) Int64Inclusive(min int64, max int64) int64 {
	value := int64(f)
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name         string
		baseXP       int64
		baseCurrency int64
		events       []entities.Event
		kind         entities.SubmissionType
		wantXP       int64
		wantCurrency int64
		wantApplied  []string
		wantSkipped  []string
	}{
		{
			name:         "no events pays base",
			baseXP:       100,
			baseCurrency: 100,
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       100,
			wantCurrency: 100,
			wantApplied:  []string{},
		},
		{
			name:         "single percent boost",
			baseXP:       100,
			baseCurrency: 100,
			events:       []entities.Event{{EventID: "double", XPPercent: 50, CurrencyPercent: 50}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       150,
			wantCurrency: 150,
			wantApplied:  []string{"double"},
		},
		{
			name:         "percents add instead of compounding",
			baseXP:       100,
			baseCurrency: 100,
			events: []entities.Event{
				{EventID: "a", XPPercent: 20, CurrencyPercent: 20},
				{EventID: "b", XPPercent: 30, CurrencyPercent: 30},
			},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       150,
			wantCurrency: 150,
			wantApplied:  []string{"a", "b"},
		},
		{
			name:         "fractional results round up",
			baseXP:       10,
			baseCurrency: 7,
			events:       []entities.Event{{EventID: "odd", XPPercent: 33, CurrencyPercent: 10}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       14,
			wantCurrency: 8,
			wantApplied:  []string{"odd"},
		},
		{
			name:         "flat bonus on mission",
			baseXP:       80,
			baseCurrency: 0,
			events:       []entities.Event{{EventID: "mission-cash", AppliesToTypes: []string{"missions"}, FlatCurrencyBonus: 500}},
			kind:         entities.SubmissionTypeMission,
			wantXP:       80,
			wantCurrency: 500,
			wantApplied:  []string{"mission-cash"},
		},
		{
			name:         "event for another category is ignored",
			baseXP:       100,
			baseCurrency: 100,
			events:       []entities.Event{{EventID: "hustle", AppliesToTypes: []string{"side_hustle"}, XPPercent: 100}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       100,
			wantCurrency: 100,
			wantApplied:  []string{},
		},
		{
			name:         "random bonus is drawn",
			baseXP:       100,
			baseCurrency: 100,
			events:       []entities.Event{{EventID: "lucky", RandomCurrencyBonus: &entities.RandomRange{Min: 10, Max: 20}}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       100,
			wantCurrency: 115,
			wantApplied:  []string{"lucky"},
		},
		{
			name:         "inverted random range is skipped",
			baseXP:       100,
			baseCurrency: 100,
			events: []entities.Event{{
				EventID:             "broken",
				CurrencyPercent:     10,
				RandomCurrencyBonus: &entities.RandomRange{Min: 20, Max: 10},
			}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       100,
			wantCurrency: 110,
			wantApplied:  []string{"broken"},
			wantSkipped:  []string{"broken"},
		},
		{
			name:         "percent at or below minus one hundred pays nothing",
			baseXP:       100,
			baseCurrency: 100,
			events:       []entities.Event{{EventID: "penalty", XPPercent: -150, CurrencyPercent: -100}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       0,
			wantCurrency: 0,
			wantApplied:  []string{"penalty"},
		},
		{
			name:         "negative flat bonus clamps at zero",
			baseXP:       100,
			baseCurrency: 100,
			events:       []entities.Event{{EventID: "fee", FlatCurrencyBonus: -500}},
			kind:         entities.SubmissionTypeContractStage,
			wantXP:       100,
			wantCurrency: 0,
			wantApplied:  []string{"fee"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Settle(tc.baseXP, tc.baseCurrency, tc.events, tc.kind, fixedDraw(15))
			if got.FinalXP != tc.wantXP || got.FinalCurrency != tc.wantCurrency {
				t.Fatalf("expected %d xp / %d currency, got %d / %d", tc.wantXP, tc.wantCurrency, got.FinalXP, got.FinalCurrency)
			}
			if !reflect.DeepEqual(got.AppliedEventIDs, tc.wantApplied) {
				t.Fatalf("expected applied %v, got %v", tc.wantApplied, got.AppliedEventIDs)
			}
			if !reflect.DeepEqual(got.SkippedEventIDs, tc.wantSkipped) {
				t.Fatalf("expected skipped %v, got %v", tc.wantSkipped, got.SkippedEventIDs)
			}
			if got.BonusXP < 0 || got.BonusCurrency < 0 {
				t.Fatalf("bonuses must not be negative: %+v", got)
			}
			if got.BaseXP != tc.baseXP || got.BaseCurrency != tc.baseCurrency {
				t.Fatalf("base values not echoed: %+v", got)
			}
		})
	}
}

func TestSettleRecordsRandomRolls(t *testing.T) {
	events := []entities.Event{
		{EventID: "a", RandomCurrencyBonus: &entities.RandomRange{Min: 1, Max: 5}},
		{EventID: "b", RandomCurrencyBonus: &entities.RandomRange{Min: 30, Max: 40}},
	}
	got := Settle(0, 0, events, entities.SubmissionTypeContractStage, fixedDraw(3))

	want := []entities.RandomRoll{
		{EventID: "a", Min: 1, Max: 5, Value: 3},
		{EventID: "b", Min: 30, Max: 40, Value: 30},
	}
	if !reflect.DeepEqual(got.RandomRolls, want) {
		t.Fatalf("unexpected rolls: %+v", got.RandomRolls)
	}
	if got.RandomCurrency != 33 || got.FinalCurrency != 33 || got.BonusCurrency != 33 {
		t.Fatalf("unexpected totals: %+v", got)
	}
}

func TestSettleWithoutRandomSourceSkipsDraws(t *testing.T) {
	events := []entities.Event{{EventID: "lucky", RandomCurrencyBonus: &entities.RandomRange{Min: 1, Max: 5}}}
	got := Settle(10, 10, events, entities.SubmissionTypeContractStage, nil)
	if got.FinalCurrency != 10 || len(got.SkippedEventIDs) != 1 {
		t.Fatalf("expected draw to be skipped, got %+v", got)
	}
}
