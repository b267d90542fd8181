package http

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type StartJobRequest struct {
	ContractID string `json:"contract_id" validate:"required,max=128"`
}

type SubmitStageRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

type ApproveStageRequest struct {
	StageNumber int `json:"stage_number" validate:"gte=0"`
}

type RejectStageRequest struct {
	Feedback string `json:"feedback" validate:"max=4000"`
}

type RegisterProfileRequest struct {
	DisplayName string `json:"display_name" validate:"max=128"`
	ClassID     string `json:"class_id" validate:"max=128"`
	OrgID       string `json:"org_id" validate:"max=128"`
	Role        string `json:"role" validate:"omitempty,oneof=participant reviewer supervisor teacher admin administrator"`
}

type StageDTO struct {
	StageNumber       int    `json:"stage_number"`
	Name              string `json:"name"`
	RequirementText   string `json:"requirement_text"`
	PayoutXP          int64  `json:"payout_xp"`
	PayoutCurrency    int64  `json:"payout_currency"`
	Status            string `json:"status"`
	SubmissionContent string `json:"submission_content,omitempty"`
	SubmittedAt       string `json:"submitted_at,omitempty"`
	Feedback          string `json:"feedback,omitempty"`
	ReviewedBy        string `json:"reviewed_by,omitempty"`
	ReviewedAt        string `json:"reviewed_at,omitempty"`
	ApprovedAt        string `json:"approved_at,omitempty"`
	Attempts          int    `json:"attempts"`
}

type JobDTO struct {
	JobID              string     `json:"job_id"`
	UserID             string     `json:"user_id"`
	ContractID         string     `json:"contract_id"`
	ContractVersion    int        `json:"contract_version"`
	ContractTitle      string     `json:"contract_title"`
	Status             string     `json:"status"`
	CurrentStageNumber int        `json:"current_stage_number"`
	StageCount         int        `json:"stage_count"`
	Stages             []StageDTO `json:"stages"`
	StartedAt          string     `json:"started_at"`
	UpdatedAt          string     `json:"updated_at"`
	CompletedAt        string     `json:"completed_at,omitempty"`
	Version            int64      `json:"version"`
}

type RandomRollDTO struct {
	EventID string `json:"event_id"`
	Min     int64  `json:"min"`
	Max     int64  `json:"max"`
	Value   int64  `json:"value"`
}

type SettlementDTO struct {
	JobID           string          `json:"job_id"`
	StageNumber     int             `json:"stage_number"`
	ReviewerID      string          `json:"reviewer_id"`
	BaseXP          int64           `json:"base_xp"`
	BaseCurrency    int64           `json:"base_currency"`
	FinalXP         int64           `json:"final_xp"`
	FinalCurrency   int64           `json:"final_currency"`
	BonusXP         int64           `json:"bonus_xp"`
	BonusCurrency   int64           `json:"bonus_currency"`
	XPPercent       int             `json:"xp_percent"`
	CurrencyPercent int             `json:"currency_percent"`
	FlatCurrency    int64           `json:"flat_currency"`
	RandomCurrency  int64           `json:"random_currency"`
	RandomRolls     []RandomRollDTO `json:"random_rolls,omitempty"`
	AppliedEventIDs []string        `json:"applied_event_ids"`
	SkippedEventIDs []string        `json:"skipped_event_ids,omitempty"`
	SettledAt       string          `json:"settled_at"`
}

type ProfileDTO struct {
	UserID             string   `json:"user_id"`
	DisplayName        string   `json:"display_name"`
	ClassID            string   `json:"class_id"`
	OrgID              string   `json:"org_id,omitempty"`
	Role               string   `json:"role"`
	CurrencyBalance    int64    `json:"currency_balance"`
	XPBalance          int64    `json:"xp_balance"`
	CompletedJobsCount int      `json:"completed_jobs_count"`
	Badges             []string `json:"badges"`
}

type JobResponse struct {
	Job JobDTO `json:"job"`
}

type ListJobsResponse struct {
	Items []JobDTO `json:"items"`
}

type ApproveStageResponse struct {
	Job        JobDTO        `json:"job"`
	Settlement SettlementDTO `json:"settlement"`
	Replayed   bool          `json:"replayed"`
}

type ListSettlementsResponse struct {
	Items []SettlementDTO `json:"items"`
}

type ProfileResponse struct {
	Profile ProfileDTO `json:"profile"`
}
