package entities

import "time"

// SettlementRecord is written once per approved stage. (JobID, StageNumber)
// is its primary key and doubles as the payout idempotency key.
type SettlementRecord struct {
	JobID           string
	StageNumber     int
	UserID          string
	ReviewerID      string
	BaseXP          int64
	BaseCurrency    int64
	FinalXP         int64
	FinalCurrency   int64
	BonusXP         int64
	BonusCurrency   int64
	Breakdown       SettlementBreakdown
	AppliedEventIDs []string
	ClaimedEventIDs []string
	SettledAt       time.Time
}

type SettlementBreakdown struct {
	XPPercent       int          `json:"xp_percent"`
	CurrencyPercent int          `json:"currency_percent"`
	FlatCurrency    int64        `json:"flat_currency"`
	RandomCurrency  int64        `json:"random_currency"`
	RandomRolls     []RandomRoll `json:"random_rolls,omitempty"`
	SkippedEventIDs []string     `json:"skipped_event_ids,omitempty"`
}

type RandomRoll struct {
	EventID string `json:"event_id"`
	Min     int64  `json:"min"`
	Max     int64  `json:"max"`
	Value   int64  `json:"value"`
}

// EventClaim records that a user consumed a one-time event.
type EventClaim struct {
	UserID      string
	EventID     string
	JobID       string
	StageNumber int
	ClaimedAt   time.Time
}

func SettlementKey(jobID string, stageNumber int) SettlementID {
	return SettlementID{JobID: jobID, StageNumber: stageNumber}
}

type SettlementID struct {
	JobID       string
	StageNumber int
}
