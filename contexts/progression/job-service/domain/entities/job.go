package entities

import (
	"fmt"
	"strings"
	"time"

	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
)

// Job is one participant's instance of a contract. Stage data is a frozen
// copy of the catalog taken by NewJob; nothing on a Job is ever re-read from
// the catalog.
type Job struct {
	JobID              string
	UserID             string
	ContractID         string
	ContractVersion    int
	ContractTitle      string
	CompletionBadge    string
	Status             JobStatus
	CurrentStageNumber int
	StageCount         int
	Stages             map[int]StageRecord
	StartedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
	ArchivedAt         *time.Time
	// Version is bumped by every transition; stores use it for compare-and-set.
	Version int64
}

type StageRecord struct {
	StageNumber       int
	Name              string
	RequirementText   string
	PayoutXP          int64
	PayoutCurrency    int64
	Status            StageStatus
	SubmissionContent string
	SubmittedAt       *time.Time
	Feedback          string
	ReviewedBy        string
	ReviewedAt        *time.Time
	ApprovedAt        *time.Time
	Attempts          int
}

// ApprovedStage describes the stage an Approve call just closed.
type ApprovedStage struct {
	StageNumber    int
	PayoutXP       int64
	PayoutCurrency int64
	CompletedJob   bool
}

// NewJob snapshots contract into a fresh job. Stage numbers are renumbered
// 1..n in ascending SequenceNumber order.
func NewJob(jobID string, userID string, contract ContractDefinition, now time.Time) (Job, error) {
	jobID = strings.TrimSpace(jobID)
	userID = strings.TrimSpace(userID)
	if jobID == "" || userID == "" || !contract.Validate() {
		return Job{}, domainerrors.ErrInvalidInput
	}
	templates := contract.OrderedStages()
	if len(templates) == 0 {
		return Job{}, domainerrors.ErrContractHasNoStage
	}

	now = now.UTC()
	stages := make(map[int]StageRecord, len(templates))
	for index, template := range templates {
		number := index + 1
		xp, currency := template.payout(contract)
		status := StageStatusLocked
		if number == 1 {
			status = StageStatusActive
		}
		stages[number] = StageRecord{
			StageNumber:     number,
			Name:            template.Name,
			RequirementText: template.RequirementText,
			PayoutXP:        xp,
			PayoutCurrency:  currency,
			Status:          status,
		}
	}

	return Job{
		JobID:              jobID,
		UserID:             userID,
		ContractID:         strings.TrimSpace(contract.ContractID),
		ContractVersion:    contract.Version,
		ContractTitle:      strings.TrimSpace(contract.Title),
		CompletionBadge:    strings.TrimSpace(contract.CompletionBadge),
		Status:             JobStatusInProgress,
		CurrentStageNumber: 1,
		StageCount:         len(templates),
		Stages:             stages,
		StartedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}, nil
}

// Clone returns a deep copy so transitions never alias the caller's value.
func (j Job) Clone() Job {
	out := j
	out.Stages = make(map[int]StageRecord, len(j.Stages))
	for number, stage := range j.Stages {
		stage.SubmittedAt = cloneTime(stage.SubmittedAt)
		stage.ReviewedAt = cloneTime(stage.ReviewedAt)
		stage.ApprovedAt = cloneTime(stage.ApprovedAt)
		out.Stages[number] = stage
	}
	out.CompletedAt = cloneTime(j.CompletedAt)
	out.ArchivedAt = cloneTime(j.ArchivedAt)
	return out
}

func (j Job) CurrentStage() (StageRecord, bool) {
	stage, ok := j.Stages[j.CurrentStageNumber]
	return stage, ok
}

// Progress is the ranking position of the job: the current stage number, or
// one past the last stage once the job is completed.
func (j Job) Progress() int {
	if j.Status == JobStatusCompleted {
		return j.StageCount + 1
	}
	return j.CurrentStageNumber
}

// Submit records work for the current stage and moves the job to review.
func (j Job) Submit(stageNumber int, content string, now time.Time) (Job, error) {
	if j.Status.IsTerminal() {
		return Job{}, domainerrors.ErrJobCompleted
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Job{}, domainerrors.ErrEmptySubmission
	}
	if !j.Status.AwaitingSubmission() {
		return Job{}, domainerrors.ErrNotAwaitingSubmit
	}
	if stageNumber != j.CurrentStageNumber {
		return Job{}, domainerrors.ErrWrongStage
	}
	stage, ok := j.CurrentStage()
	if !ok || (stage.Status != StageStatusActive && stage.Status != StageStatusReturned) {
		return Job{}, domainerrors.ErrNotAwaitingSubmit
	}

	now = now.UTC()
	next := j.Clone()
	stage.Status = StageStatusPendingReview
	stage.SubmissionContent = content
	stage.SubmittedAt = &now
	stage.Feedback = ""
	stage.Attempts++
	next.Stages[stage.StageNumber] = stage
	next.Status = JobStatusPendingReview
	next.UpdatedAt = now
	next.Version++
	return next, nil
}

// Approve closes the pending stage and either unlocks the next one or
// completes the job.
func (j Job) Approve(reviewerID string, now time.Time) (Job, ApprovedStage, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return Job{}, ApprovedStage{}, domainerrors.ErrUnauthorizedActor
	}
	// A completed job has no pending stage, so it reports not found.
	stage, ok := j.CurrentStage()
	if j.Status != JobStatusPendingReview || !ok || stage.Status != StageStatusPendingReview {
		return Job{}, ApprovedStage{}, domainerrors.ErrNoPendingStage
	}

	now = now.UTC()
	next := j.Clone()
	stage.Status = StageStatusApproved
	stage.ReviewedBy = strings.TrimSpace(reviewerID)
	stage.ReviewedAt = &now
	stage.ApprovedAt = &now
	next.Stages[stage.StageNumber] = stage

	approved := ApprovedStage{
		StageNumber:    stage.StageNumber,
		PayoutXP:       stage.PayoutXP,
		PayoutCurrency: stage.PayoutCurrency,
	}
	if stage.StageNumber >= j.StageCount {
		next.Status = JobStatusCompleted
		next.CompletedAt = &now
		archivedAt := now
		next.ArchivedAt = &archivedAt
		approved.CompletedJob = true
	} else {
		next.CurrentStageNumber = stage.StageNumber + 1
		following := next.Stages[next.CurrentStageNumber]
		following.Status = StageStatusActive
		next.Stages[next.CurrentStageNumber] = following
		next.Status = JobStatusInProgress
	}
	next.UpdatedAt = now
	next.Version++
	return next, approved, nil
}

// Reject hands the pending stage back with feedback. The stage number does
// not move, so the next submission must target the same stage.
func (j Job) Reject(reviewerID string, feedback string, now time.Time) (Job, error) {
	if strings.TrimSpace(reviewerID) == "" {
		return Job{}, domainerrors.ErrUnauthorizedActor
	}
	if j.Status.IsTerminal() {
		return Job{}, domainerrors.ErrJobCompleted
	}
	stage, ok := j.CurrentStage()
	if j.Status != JobStatusPendingReview || !ok || stage.Status != StageStatusPendingReview {
		return Job{}, domainerrors.ErrNotAwaitingReview
	}

	now = now.UTC()
	next := j.Clone()
	stage.Status = StageStatusReturned
	stage.Feedback = strings.TrimSpace(feedback)
	stage.ReviewedBy = strings.TrimSpace(reviewerID)
	stage.ReviewedAt = &now
	next.Stages[stage.StageNumber] = stage
	next.Status = JobStatusReturned
	next.UpdatedAt = now
	next.Version++
	return next, nil
}

// CheckInvariants verifies the structural rules every stored job must obey.
func (j Job) CheckInvariants() error {
	if j.StageCount <= 0 || len(j.Stages) != j.StageCount {
		return fmt.Errorf("%w: stage count %d does not match %d records", domainerrors.ErrInvariantViolation, j.StageCount, len(j.Stages))
	}
	if j.CurrentStageNumber < 1 || j.CurrentStageNumber > j.StageCount {
		return fmt.Errorf("%w: current stage %d outside [1,%d]", domainerrors.ErrInvariantViolation, j.CurrentStageNumber, j.StageCount)
	}
	open := 0
	for number := 1; number <= j.StageCount; number++ {
		stage, ok := j.Stages[number]
		if !ok {
			return fmt.Errorf("%w: stage %d missing", domainerrors.ErrInvariantViolation, number)
		}
		if stage.Status.IsOpenWork() {
			open++
		}
		switch {
		case number < j.CurrentStageNumber && stage.Status != StageStatusApproved:
			return fmt.Errorf("%w: stage %d before current is %s", domainerrors.ErrInvariantViolation, number, stage.Status)
		case number > j.CurrentStageNumber && stage.Status != StageStatusLocked:
			return fmt.Errorf("%w: stage %d after current is %s", domainerrors.ErrInvariantViolation, number, stage.Status)
		}
	}
	if open > 1 {
		return fmt.Errorf("%w: %d stages open at once", domainerrors.ErrInvariantViolation, open)
	}
	if j.Status == JobStatusCompleted {
		if current := j.Stages[j.CurrentStageNumber]; current.Status != StageStatusApproved || j.CurrentStageNumber != j.StageCount {
			return fmt.Errorf("%w: completed job has unapproved stages", domainerrors.ErrInvariantViolation)
		}
	}
	return nil
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
