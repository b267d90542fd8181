package http

type RandomRangeDTO struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type EventDTO struct {
	EventID             string          `json:"event_id"`
	Name                string          `json:"name"`
	StartAt             string          `json:"start_at,omitempty"`
	EndAt               string          `json:"end_at,omitempty"`
	Scope               string          `json:"scope,omitempty"`
	ClassIDs            []string        `json:"class_ids,omitempty"`
	AppliesToTypes      []string        `json:"applies_to_types,omitempty"`
	OneTimePerUser      bool            `json:"one_time_per_user"`
	XPPercent           int             `json:"xp_percent"`
	CurrencyPercent     int             `json:"currency_percent"`
	FlatCurrencyBonus   int64           `json:"flat_currency_bonus"`
	RandomCurrencyBonus *RandomRangeDTO `json:"random_currency_bonus,omitempty"`
}

type ListActiveEventsQuery struct {
	ClassID        string `validate:"max=128"`
	OrgID          string `validate:"max=128"`
	SubmissionType string `validate:"max=64"`
}

type ListActiveEventsResponse struct {
	Items []EventDTO `json:"items"`
}
