package entities

import (
	"errors"
	"testing"

	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
)

func TestParseJobStatusDialects(t *testing.T) {
	tests := map[string]JobStatus{
		"in_progress":    JobStatusInProgress,
		" Active ":       JobStatusInProgress,
		"Pending Review": JobStatusPendingReview,
		"submitted":      JobStatusPendingReview,
		"rejected":       JobStatusReturned,
		"needs_revision": JobStatusReturned,
		"DONE":           JobStatusCompleted,
	}
	for raw, want := range tests {
		got, err := ParseJobStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := ParseJobStatus("paused"); !errors.Is(err, domainerrors.ErrUnknownJobStatus) {
		t.Fatalf("expected ErrUnknownJobStatus, got %v", err)
	}
}

func TestParseStageAndContractStatus(t *testing.T) {
	if got, err := ParseStageStatus("completed"); err != nil || got != StageStatusApproved {
		t.Fatalf("expected approved, got %s %v", got, err)
	}
	if _, err := ParseStageStatus("??"); !errors.Is(err, domainerrors.ErrUnknownStageStatus) {
		t.Fatalf("expected ErrUnknownStageStatus, got %v", err)
	}
	if got, err := ParseContractStatus("published"); err != nil || got != ContractStatusOpen {
		t.Fatalf("expected open, got %s %v", got, err)
	}
	if got, err := ParseContractStatus("archived"); err != nil || got != ContractStatusClosed {
		t.Fatalf("expected closed, got %s %v", got, err)
	}
}

func TestParseSubmissionTypeAndRole(t *testing.T) {
	if got, err := ParseSubmissionType("Side Hustle"); err != nil || got != SubmissionTypeSideHustle {
		t.Fatalf("expected side_hustle, got %s %v", got, err)
	}
	if _, err := ParseSubmissionType("quiz"); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	roles := map[string]UserRole{
		"teacher":       UserRoleReviewer,
		"Administrator": UserRoleAdmin,
		"":              UserRoleParticipant,
		"student":       UserRoleParticipant,
	}
	for raw, want := range roles {
		if got := ParseUserRole(raw); got != want {
			t.Fatalf("role %q: expected %s, got %s", raw, want, got)
		}
	}
}

func TestProfileApplyCreditsAndBadges(t *testing.T) {
	profile := UserProfile{UserID: "user-1", XPBalance: 10, Badges: BadgeSet([]string{"starter"})}
	next := profile.Apply(RewardCredit{UserID: "user-1", XP: 5, Currency: 7, CompletedJob: true, Badge: "baker"}, testNow)

	if next.XPBalance != 15 || next.CurrencyBalance != 7 || next.CompletedJobsCount != 1 {
		t.Fatalf("unexpected balances: %+v", next)
	}
	if got := next.BadgeList(); len(got) != 2 || got[0] != "baker" || got[1] != "starter" {
		t.Fatalf("unexpected badges: %v", got)
	}
	if profile.HasBadge("baker") {
		t.Fatalf("apply mutated the original profile")
	}
}
