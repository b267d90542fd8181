package entities

type RandomRoll struct {
	EventID string
	Min     int64
	Max     int64
	Value   int64
}

// Settlement is the outcome of one payout computation.
type Settlement struct {
	BaseXP          int64
	BaseCurrency    int64
	FinalXP         int64
	FinalCurrency   int64
	BonusXP         int64
	BonusCurrency   int64
	XPPercent       int
	CurrencyPercent int
	FlatCurrency    int64
	RandomCurrency  int64
	AppliedEventIDs []string
	RandomRolls     []RandomRoll
	// SkippedEventIDs lists applied events whose random range was unusable.
	SkippedEventIDs []string
}
