package entities

import (
	"errors"
	"testing"
	"time"

	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
)

var testNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func threeStageContract() ContractDefinition {
	return ContractDefinition{
		ContractID:         "contract-1",
		Version:            2,
		Title:              "Bakery Website",
		Status:             ContractStatusOpen,
		BasePayoutXP:       100,
		BasePayoutCurrency: 50,
		CompletionBadge:    "baker",
		Stages: []StageTemplate{
			{SequenceNumber: 30, Name: "Launch"},
			{SequenceNumber: 10, Name: "Wireframe", PayoutXP: 40, PayoutCurrency: 20},
			{SequenceNumber: 20, Name: "Build"},
		},
	}
}

func mustNewJob(t *testing.T) Job {
	t.Helper()
	job, err := NewJob("job-1", "user-1", threeStageContract(), testNow)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestNewJobSnapshotsStagesInSequenceOrder(t *testing.T) {
	job := mustNewJob(t)

	if job.StageCount != 3 || job.CurrentStageNumber != 1 || job.Status != JobStatusInProgress {
		t.Fatalf("unexpected job header: %+v", job)
	}
	if job.Version != 1 {
		t.Fatalf("expected version 1, got %d", job.Version)
	}
	names := []string{"Wireframe", "Build", "Launch"}
	for index, name := range names {
		stage := job.Stages[index+1]
		if stage.Name != name {
			t.Fatalf("stage %d: expected %q, got %q", index+1, name, stage.Name)
		}
	}
	if job.Stages[1].Status != StageStatusActive || job.Stages[2].Status != StageStatusLocked {
		t.Fatalf("expected first stage active and rest locked")
	}
	if job.Stages[1].PayoutXP != 40 || job.Stages[2].PayoutXP != 100 || job.Stages[2].PayoutCurrency != 50 {
		t.Fatalf("unexpected payouts: %+v %+v", job.Stages[1], job.Stages[2])
	}
	if err := job.CheckInvariants(); err != nil {
		t.Fatalf("fresh job violates invariants: %v", err)
	}
}

func TestNewJobRejectsContractWithoutStages(t *testing.T) {
	contract := threeStageContract()
	contract.Stages = nil
	if _, err := NewJob("job-1", "user-1", contract, testNow); !errors.Is(err, domainerrors.ErrContractHasNoStage) {
		t.Fatalf("expected ErrContractHasNoStage, got %v", err)
	}
	if _, err := NewJob("", "user-1", threeStageContract(), testNow); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for empty job id, got %v", err)
	}
}

func TestJobFullLifecycle(t *testing.T) {
	job := mustNewJob(t)
	var err error

	for number := 1; number <= 3; number++ {
		job, err = job.Submit(number, "work for stage", testNow)
		if err != nil {
			t.Fatalf("submit %d: %v", number, err)
		}
		if job.Status != JobStatusPendingReview {
			t.Fatalf("expected pending_review after submit, got %s", job.Status)
		}
		var approved ApprovedStage
		job, approved, err = job.Approve("reviewer-1", testNow)
		if err != nil {
			t.Fatalf("approve %d: %v", number, err)
		}
		if approved.StageNumber != number {
			t.Fatalf("expected approved stage %d, got %d", number, approved.StageNumber)
		}
		if approved.CompletedJob != (number == 3) {
			t.Fatalf("unexpected completion flag at stage %d", number)
		}
		if err := job.CheckInvariants(); err != nil {
			t.Fatalf("invariants after stage %d: %v", number, err)
		}
	}

	if job.Status != JobStatusCompleted || job.CompletedAt == nil || job.ArchivedAt == nil {
		t.Fatalf("expected completed and archived job, got %+v", job)
	}
	if job.CurrentStageNumber != 3 {
		t.Fatalf("expected current stage to stay at 3, got %d", job.CurrentStageNumber)
	}
	if job.Progress() != 4 {
		t.Fatalf("expected progress 4 for completed job, got %d", job.Progress())
	}
	if job.Version != 7 {
		t.Fatalf("expected version 7 after six transitions, got %d", job.Version)
	}

	if _, err := job.Submit(3, "again", testNow); !errors.Is(err, domainerrors.ErrJobCompleted) {
		t.Fatalf("expected ErrJobCompleted, got %v", err)
	}
	if _, _, err := job.Approve("reviewer-1", testNow); !errors.Is(err, domainerrors.ErrNoPendingStage) {
		t.Fatalf("expected ErrNoPendingStage on approve, got %v", err)
	}
}

func TestJobSubmitGuards(t *testing.T) {
	job := mustNewJob(t)

	tests := []struct {
		name    string
		stage   int
		content string
		want    error
	}{
		{name: "empty content", stage: 1, content: "   ", want: domainerrors.ErrEmptySubmission},
		{name: "future stage", stage: 2, content: "x", want: domainerrors.ErrWrongStage},
		{name: "zero stage", stage: 0, content: "x", want: domainerrors.ErrWrongStage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := job.Submit(tc.stage, tc.content, testNow); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	pending, err := job.Submit(1, "draft", testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := pending.Submit(1, "again", testNow); !errors.Is(err, domainerrors.ErrNotAwaitingSubmit) {
		t.Fatalf("expected ErrNotAwaitingSubmit while pending, got %v", err)
	}
}

func TestJobRejectReturnsSameStage(t *testing.T) {
	job := mustNewJob(t)
	pending, err := job.Submit(1, "draft", testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	returned, err := pending.Reject("reviewer-1", " needs more detail ", testNow)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	stage := returned.Stages[1]
	if returned.Status != JobStatusReturned || stage.Status != StageStatusReturned {
		t.Fatalf("expected returned job and stage, got %s/%s", returned.Status, stage.Status)
	}
	if stage.Feedback != "needs more detail" || returned.CurrentStageNumber != 1 {
		t.Fatalf("unexpected returned stage: %+v", stage)
	}
	if err := returned.CheckInvariants(); err != nil {
		t.Fatalf("returned job violates invariants: %v", err)
	}

	if _, err := returned.Reject("reviewer-1", "", testNow); !errors.Is(err, domainerrors.ErrNotAwaitingReview) {
		t.Fatalf("expected ErrNotAwaitingReview, got %v", err)
	}
	if _, _, err := returned.Approve("reviewer-1", testNow); !errors.Is(err, domainerrors.ErrNoPendingStage) {
		t.Fatalf("expected ErrNoPendingStage, got %v", err)
	}

	resubmitted, err := returned.Submit(1, "second draft", testNow)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmitted.Stages[1].Attempts != 2 || resubmitted.Stages[1].Feedback != "" {
		t.Fatalf("expected attempt 2 with cleared feedback, got %+v", resubmitted.Stages[1])
	}
}

func TestJobTransitionsDoNotMutateReceiver(t *testing.T) {
	job := mustNewJob(t)
	if _, err := job.Submit(1, "draft", testNow); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.Status != JobStatusInProgress || job.Stages[1].Status != StageStatusActive || job.Version != 1 {
		t.Fatalf("receiver was mutated: %+v", job.Stages[1])
	}
}

func TestApproveRequiresReviewer(t *testing.T) {
	job := mustNewJob(t)
	pending, err := job.Submit(1, "draft", testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := pending.Approve(" ", testNow); !errors.Is(err, domainerrors.ErrUnauthorizedActor) {
		t.Fatalf("expected ErrUnauthorizedActor, got %v", err)
	}
}

func TestCheckInvariantsDetectsCorruption(t *testing.T) {
	job := mustNewJob(t)

	twoOpen := job.Clone()
	stage := twoOpen.Stages[2]
	stage.Status = StageStatusActive
	twoOpen.Stages[2] = stage
	if err := twoOpen.CheckInvariants(); !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected violation for unlocked future stage, got %v", err)
	}

	outOfRange := job.Clone()
	outOfRange.CurrentStageNumber = 4
	if err := outOfRange.CheckInvariants(); !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected violation for out of range stage, got %v", err)
	}

	missing := job.Clone()
	delete(missing.Stages, 3)
	if err := missing.CheckInvariants(); !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected violation for missing stage, got %v", err)
	}
}
