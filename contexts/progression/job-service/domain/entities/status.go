package entities

import (
	"strings"

	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
)

// JobStatus is the closed set of job states.
//
//	in_progress ──submit──► pending_review ──approve──► in_progress (next stage) | completed
//	     ▲                        │
//	     └──── returned ◄─reject──┘
//
// completed is terminal.
type JobStatus string

const (
	JobStatusInProgress    JobStatus = "in_progress"
	JobStatusPendingReview JobStatus = "pending_review"
	JobStatusReturned      JobStatus = "returned"
	JobStatusCompleted     JobStatus = "completed"
)

// StageStatus is the closed set of per-stage states.
type StageStatus string

const (
	StageStatusLocked        StageStatus = "locked"
	StageStatusActive        StageStatus = "active"
	StageStatusPendingReview StageStatus = "pending_review"
	StageStatusApproved      StageStatus = "approved"
	StageStatusReturned      StageStatus = "returned"
)

// ContractStatus tells whether new jobs may be started from a contract.
type ContractStatus string

const (
	ContractStatusOpen   ContractStatus = "open"
	ContractStatusClosed ContractStatus = "closed"
)

// SubmissionType categorises the work being rewarded.
type SubmissionType string

const (
	SubmissionTypeContractStage SubmissionType = "contract_stage"
	SubmissionTypeSideHustle    SubmissionType = "side_hustle"
	SubmissionTypeMission       SubmissionType = "mission"
)

var jobStatusDialects = map[string]JobStatus{
	"in_progress":    JobStatusInProgress,
	"in-progress":    JobStatusInProgress,
	"active":         JobStatusInProgress,
	"started":        JobStatusInProgress,
	"pending_review": JobStatusPendingReview,
	"pending":        JobStatusPendingReview,
	"review":         JobStatusPendingReview,
	"in_review":      JobStatusPendingReview,
	"submitted":      JobStatusPendingReview,
	"returned":       JobStatusReturned,
	"rejected":       JobStatusReturned,
	"needs_revision": JobStatusReturned,
	"completed":      JobStatusCompleted,
	"complete":       JobStatusCompleted,
	"done":           JobStatusCompleted,
}

var stageStatusDialects = map[string]StageStatus{
	"locked":         StageStatusLocked,
	"active":         StageStatusActive,
	"in_progress":    StageStatusActive,
	"pending_review": StageStatusPendingReview,
	"pending":        StageStatusPendingReview,
	"review":         StageStatusPendingReview,
	"submitted":      StageStatusPendingReview,
	"approved":       StageStatusApproved,
	"done":           StageStatusApproved,
	"completed":      StageStatusApproved,
	"returned":       StageStatusReturned,
	"rejected":       StageStatusReturned,
}

func normalizeToken(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(value, " ", "_")
}

// ParseJobStatus folds every historical spelling into the canonical enum.
func ParseJobStatus(raw string) (JobStatus, error) {
	if status, ok := jobStatusDialects[normalizeToken(raw)]; ok {
		return status, nil
	}
	return "", domainerrors.ErrUnknownJobStatus
}

func ParseStageStatus(raw string) (StageStatus, error) {
	if status, ok := stageStatusDialects[normalizeToken(raw)]; ok {
		return status, nil
	}
	return "", domainerrors.ErrUnknownStageStatus
}

func ParseContractStatus(raw string) (ContractStatus, error) {
	switch normalizeToken(raw) {
	case "open", "published", "active":
		return ContractStatusOpen, nil
	case "closed", "archived", "draft":
		return ContractStatusClosed, nil
	}
	return "", domainerrors.ErrUnknownContractState
}

func ParseSubmissionType(raw string) (SubmissionType, error) {
	switch normalizeToken(raw) {
	case "contract_stage", "contract", "stage":
		return SubmissionTypeContractStage, nil
	case "side_hustle", "sidehustle", "side-hustle":
		return SubmissionTypeSideHustle, nil
	case "mission":
		return SubmissionTypeMission, nil
	}
	return "", domainerrors.ErrUnknownSubmission
}

// IsTerminal reports whether no further transition can leave status.
func (s JobStatus) IsTerminal() bool { return s == JobStatusCompleted }

// AwaitingSubmission reports whether a participant may submit work.
func (s JobStatus) AwaitingSubmission() bool {
	return s == JobStatusInProgress || s == JobStatusReturned
}

// IsOpenWork reports whether the stage currently counts as "the" open stage.
func (s StageStatus) IsOpenWork() bool {
	return s == StageStatusActive || s == StageStatusPendingReview
}
