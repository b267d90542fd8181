package postgresadapter

import (
	"encoding/json"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type jobModel struct {
	JobID              string     `gorm:"column:job_id;primaryKey"`
	UserID             string     `gorm:"column:user_id"`
	ContractID         string     `gorm:"column:contract_id"`
	ContractVersion    int        `gorm:"column:contract_version"`
	ContractTitle      string     `gorm:"column:contract_title"`
	CompletionBadge    string     `gorm:"column:completion_badge"`
	Status             string     `gorm:"column:status"`
	CurrentStageNumber int        `gorm:"column:current_stage_number"`
	StageCount         int        `gorm:"column:stage_count"`
	Stages             []byte     `gorm:"column:stages;type:jsonb"`
	StartedAt          time.Time  `gorm:"column:started_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	ArchivedAt         *time.Time `gorm:"column:archived_at"`
	Version            int64      `gorm:"column:version"`
}

func (jobModel) TableName() string {
	return "jobs"
}

// stageDocument is the JSONB shape of one entry in jobs.stages.
type stageDocument struct {
	StageNumber       int        `json:"stage_number"`
	Name              string     `json:"name"`
	RequirementText   string     `json:"requirement_text"`
	PayoutXP          int64      `json:"payout_xp"`
	PayoutCurrency    int64      `json:"payout_currency"`
	Status            string     `json:"status"`
	SubmissionContent string     `json:"submission_content,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	Feedback          string     `json:"feedback,omitempty"`
	ReviewedBy        string     `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	Attempts          int        `json:"attempts"`
}

func jobModelFromEntity(job entities.Job) (jobModel, error) {
	documents := make([]stageDocument, 0, len(job.Stages))
	for number := 1; number <= job.StageCount; number++ {
		stage, ok := job.Stages[number]
		if !ok {
			continue
		}
		documents = append(documents, stageDocument{
			StageNumber:       stage.StageNumber,
			Name:              stage.Name,
			RequirementText:   stage.RequirementText,
			PayoutXP:          stage.PayoutXP,
			PayoutCurrency:    stage.PayoutCurrency,
			Status:            string(stage.Status),
			SubmissionContent: stage.SubmissionContent,
			SubmittedAt:       normalizeOptionalTime(stage.SubmittedAt),
			Feedback:          stage.Feedback,
			ReviewedBy:        stage.ReviewedBy,
			ReviewedAt:        normalizeOptionalTime(stage.ReviewedAt),
			ApprovedAt:        normalizeOptionalTime(stage.ApprovedAt),
			Attempts:          stage.Attempts,
		})
	}
	stages, err := json.Marshal(documents)
	if err != nil {
		return jobModel{}, err
	}
	return jobModel{
		JobID:              job.JobID,
		UserID:             job.UserID,
		ContractID:         job.ContractID,
		ContractVersion:    job.ContractVersion,
		ContractTitle:      job.ContractTitle,
		CompletionBadge:    job.CompletionBadge,
		Status:             string(job.Status),
		CurrentStageNumber: job.CurrentStageNumber,
		StageCount:         job.StageCount,
		Stages:             stages,
		StartedAt:          job.StartedAt.UTC(),
		UpdatedAt:          job.UpdatedAt.UTC(),
		CompletedAt:        normalizeOptionalTime(job.CompletedAt),
		ArchivedAt:         normalizeOptionalTime(job.ArchivedAt),
		Version:            job.Version,
	}, nil
}

func (m jobModel) updates() map[string]any {
	return map[string]any{
		"status":               m.Status,
		"current_stage_number": m.CurrentStageNumber,
		"stages":               m.Stages,
		"updated_at":           m.UpdatedAt,
		"completed_at":         m.CompletedAt,
		"archived_at":          m.ArchivedAt,
		"version":              m.Version,
	}
}

// toEntity decodes a stored row. Legacy status spellings are folded through
// the entity parsers; anything unknown is an error, never a default.
func (m jobModel) toEntity() (entities.Job, error) {
	status, err := entities.ParseJobStatus(m.Status)
	if err != nil {
		return entities.Job{}, err
	}
	var documents []stageDocument
	if len(m.Stages) > 0 {
		if err := json.Unmarshal(m.Stages, &documents); err != nil {
			return entities.Job{}, err
		}
	}
	stages := make(map[int]entities.StageRecord, len(documents))
	for _, document := range documents {
		stageStatus, err := entities.ParseStageStatus(document.Status)
		if err != nil {
			return entities.Job{}, err
		}
		stages[document.StageNumber] = entities.StageRecord{
			StageNumber:       document.StageNumber,
			Name:              document.Name,
			RequirementText:   document.RequirementText,
			PayoutXP:          document.PayoutXP,
			PayoutCurrency:    document.PayoutCurrency,
			Status:            stageStatus,
			SubmissionContent: document.SubmissionContent,
			SubmittedAt:       normalizeOptionalTime(document.SubmittedAt),
			Feedback:          document.Feedback,
			ReviewedBy:        document.ReviewedBy,
			ReviewedAt:        normalizeOptionalTime(document.ReviewedAt),
			ApprovedAt:        normalizeOptionalTime(document.ApprovedAt),
			Attempts:          document.Attempts,
		}
	}
	return entities.Job{
		JobID:              m.JobID,
		UserID:             m.UserID,
		ContractID:         m.ContractID,
		ContractVersion:    m.ContractVersion,
		ContractTitle:      m.ContractTitle,
		CompletionBadge:    m.CompletionBadge,
		Status:             status,
		CurrentStageNumber: m.CurrentStageNumber,
		StageCount:         m.StageCount,
		Stages:             stages,
		StartedAt:          m.StartedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
		CompletedAt:        normalizeOptionalTime(m.CompletedAt),
		ArchivedAt:         normalizeOptionalTime(m.ArchivedAt),
		Version:            m.Version,
	}, nil
}

type profileModel struct {
	UserID             string    `gorm:"column:user_id;primaryKey"`
	DisplayName        string    `gorm:"column:display_name"`
	ClassID            string    `gorm:"column:class_id"`
	OrgID              string    `gorm:"column:org_id"`
	Role               string    `gorm:"column:role"`
	CurrencyBalance    int64     `gorm:"column:currency_balance"`
	XPBalance          int64     `gorm:"column:xp_balance"`
	CompletedJobsCount int       `gorm:"column:completed_jobs_count"`
	Badges             []byte    `gorm:"column:badges;type:jsonb"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (profileModel) TableName() string {
	return "user_profiles"
}

func profileModelFromEntity(profile entities.UserProfile) (profileModel, error) {
	badges, err := json.Marshal(profile.BadgeList())
	if err != nil {
		return profileModel{}, err
	}
	return profileModel{
		UserID:             profile.UserID,
		DisplayName:        profile.DisplayName,
		ClassID:            profile.ClassID,
		OrgID:              profile.OrgID,
		Role:               string(profile.Role),
		CurrencyBalance:    profile.CurrencyBalance,
		XPBalance:          profile.XPBalance,
		CompletedJobsCount: profile.CompletedJobsCount,
		Badges:             badges,
		UpdatedAt:          profile.UpdatedAt.UTC(),
	}, nil
}

func (m profileModel) toEntity() (entities.UserProfile, error) {
	var badges []string
	if len(m.Badges) > 0 {
		if err := json.Unmarshal(m.Badges, &badges); err != nil {
			return entities.UserProfile{}, err
		}
	}
	return entities.UserProfile{
		UserID:             m.UserID,
		DisplayName:        m.DisplayName,
		ClassID:            m.ClassID,
		OrgID:              m.OrgID,
		Role:               entities.ParseUserRole(m.Role),
		CurrencyBalance:    m.CurrencyBalance,
		XPBalance:          m.XPBalance,
		CompletedJobsCount: m.CompletedJobsCount,
		Badges:             entities.BadgeSet(badges),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

type settlementModel struct {
	JobID           string    `gorm:"column:job_id;primaryKey"`
	StageNumber     int       `gorm:"column:stage_number;primaryKey"`
	UserID          string    `gorm:"column:user_id"`
	ReviewerID      string    `gorm:"column:reviewer_id"`
	BaseXP          int64     `gorm:"column:base_xp"`
	BaseCurrency    int64     `gorm:"column:base_currency"`
	FinalXP         int64     `gorm:"column:final_xp"`
	FinalCurrency   int64     `gorm:"column:final_currency"`
	BonusXP         int64     `gorm:"column:bonus_xp"`
	BonusCurrency   int64     `gorm:"column:bonus_currency"`
	Breakdown       []byte    `gorm:"column:breakdown;type:jsonb"`
	AppliedEventIDs []byte    `gorm:"column:applied_event_ids;type:jsonb"`
	ClaimedEventIDs []byte    `gorm:"column:claimed_event_ids;type:jsonb"`
	SettledAt       time.Time `gorm:"column:settled_at"`
}

func (settlementModel) TableName() string {
	return "reward_settlements"
}

func settlementModelFromEntity(record entities.SettlementRecord) (settlementModel, error) {
	breakdown, err := json.Marshal(record.Breakdown)
	if err != nil {
		return settlementModel{}, err
	}
	applied, err := json.Marshal(nonNil(record.AppliedEventIDs))
	if err != nil {
		return settlementModel{}, err
	}
	claimed, err := json.Marshal(nonNil(record.ClaimedEventIDs))
	if err != nil {
		return settlementModel{}, err
	}
	return settlementModel{
		JobID:           record.JobID,
		StageNumber:     record.StageNumber,
		UserID:          record.UserID,
		ReviewerID:      record.ReviewerID,
		BaseXP:          record.BaseXP,
		BaseCurrency:    record.BaseCurrency,
		FinalXP:         record.FinalXP,
		FinalCurrency:   record.FinalCurrency,
		BonusXP:         record.BonusXP,
		BonusCurrency:   record.BonusCurrency,
		Breakdown:       breakdown,
		AppliedEventIDs: applied,
		ClaimedEventIDs: claimed,
		SettledAt:       record.SettledAt.UTC(),
	}, nil
}

func (m settlementModel) toEntity() (entities.SettlementRecord, error) {
	record := entities.SettlementRecord{
		JobID:         m.JobID,
		StageNumber:   m.StageNumber,
		UserID:        m.UserID,
		ReviewerID:    m.ReviewerID,
		BaseXP:        m.BaseXP,
		BaseCurrency:  m.BaseCurrency,
		FinalXP:       m.FinalXP,
		FinalCurrency: m.FinalCurrency,
		BonusXP:       m.BonusXP,
		BonusCurrency: m.BonusCurrency,
		SettledAt:     m.SettledAt.UTC(),
	}
	if len(m.Breakdown) > 0 {
		if err := json.Unmarshal(m.Breakdown, &record.Breakdown); err != nil {
			return entities.SettlementRecord{}, err
		}
	}
	if len(m.AppliedEventIDs) > 0 {
		if err := json.Unmarshal(m.AppliedEventIDs, &record.AppliedEventIDs); err != nil {
			return entities.SettlementRecord{}, err
		}
	}
	if len(m.ClaimedEventIDs) > 0 {
		if err := json.Unmarshal(m.ClaimedEventIDs, &record.ClaimedEventIDs); err != nil {
			return entities.SettlementRecord{}, err
		}
	}
	return record, nil
}

type eventClaimModel struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	EventID     string    `gorm:"column:event_id;primaryKey"`
	JobID       string    `gorm:"column:job_id"`
	StageNumber int       `gorm:"column:stage_number"`
	ClaimedAt   time.Time `gorm:"column:claimed_at"`
}

func (eventClaimModel) TableName() string {
	return "event_claims"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "job_outbox"
}

type contractModel struct {
	ContractID      string `gorm:"column:contract_id;primaryKey"`
	Version         int    `gorm:"column:version"`
	Title           string `gorm:"column:title"`
	Status          string `gorm:"column:status"`
	PayoutCurrency  int64  `gorm:"column:payout_currency"`
	PayoutXP        int64  `gorm:"column:payout_xp"`
	CompletionBadge string `gorm:"column:completion_badge"`
}

func (contractModel) TableName() string {
	return "contracts"
}

type contractStageModel struct {
	ContractID      string `gorm:"column:contract_id;primaryKey"`
	SequenceNumber  int    `gorm:"column:sequence_number;primaryKey"`
	Name            string `gorm:"column:name"`
	RequirementText string `gorm:"column:requirement_text"`
	PayoutXP        int64  `gorm:"column:payout_xp"`
	PayoutCurrency  int64  `gorm:"column:payout_currency"`
}

func (contractStageModel) TableName() string {
	return "contract_stages"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
