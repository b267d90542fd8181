package ports

import (
	"context"
	"time"

	"contracthub/contexts/progression/job-service/domain/entities"
	eventsv1 "contracthub/contracts/gen/events/v1"
)

type EventEnvelope = eventsv1.Envelope

type JobFilter struct {
	UserID        string
	ContractID    string
	ContractTitle string
	Status        entities.JobStatus
	UserIDs       []string
}

// JobRepository is the authoritative job store. UpdateJob and CommitApproval
// are compare-and-set on expectedVersion and fail with ErrStaleJobState when
// the stored version moved.
type JobRepository interface {
	CreateJob(ctx context.Context, job entities.Job, events []EventEnvelope) error
	GetJob(ctx context.Context, jobID string) (entities.Job, error)
	GetJobByUserContract(ctx context.Context, userID string, contractID string) (entities.Job, error)
	UpdateJob(ctx context.Context, expectedVersion int64, job entities.Job, events []EventEnvelope) error
	CommitApproval(ctx context.Context, commit ApprovalCommit) error
	ListJobs(ctx context.Context, filter JobFilter) ([]entities.Job, error)
}

// ApprovalCommit is the single atomic unit of an approval: the job
// transition, the settlement ledger row, the profile credit, one-time event
// claims and the outbox rows either all land or none do.
type ApprovalCommit struct {
	ExpectedVersion int64
	Job             entities.Job
	Settlement      entities.SettlementRecord
	Credit          entities.RewardCredit
	Claims          []entities.EventClaim
	Events          []EventEnvelope
}

type ProfileFilter struct {
	ClassID string
	UserIDs []string
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (entities.UserProfile, error)
	UpsertProfile(ctx context.Context, profile entities.UserProfile) error
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]entities.UserProfile, error)
}

type ClaimRepository interface {
	ListClaimedEventIDs(ctx context.Context, userID string) ([]string, error)
}

type SettlementRepository interface {
	GetSettlement(ctx context.Context, jobID string, stageNumber int) (entities.SettlementRecord, error)
	ListSettlements(ctx context.Context, jobID string) ([]entities.SettlementRecord, error)
}

type ContractCatalog interface {
	GetContract(ctx context.Context, contractID string) (entities.ContractDefinition, error)
}

type RewardRequest struct {
	UserID          string
	ClassID         string
	OrgID           string
	SubmissionType  entities.SubmissionType
	BaseXP          int64
	BaseCurrency    int64
	ClaimedEventIDs []string
	Now             time.Time
}

type RewardOutcome struct {
	FinalXP         int64
	FinalCurrency   int64
	BonusXP         int64
	BonusCurrency   int64
	Breakdown       entities.SettlementBreakdown
	AppliedEventIDs []string
	// OneTimeEventIDs must be recorded as claimed together with the payout.
	OneTimeEventIDs []string
}

// RewardSettler resolves applicable events and computes the final payout.
// It has no side effects.
type RewardSettler interface {
	Settle(ctx context.Context, request RewardRequest) (RewardOutcome, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
	// JobID derives the one job identifier a (user, contract) pair may own.
	JobID(userID string, contractID string) string
}
