package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"contracthub/contexts/progression/job-service/adapters/ids"
	"contracthub/contexts/progression/job-service/domain/entities"
	domainerrors "contracthub/contexts/progression/job-service/domain/errors"
	"contracthub/contexts/progression/job-service/ports"
)

type outboxRow struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

// Store keeps every job-service port in process. One mutex serializes all
// writes, which is what makes CommitApproval atomic here.
type Store struct {
	mu sync.RWMutex

	contracts    map[string]entities.ContractDefinition
	jobs         map[string]entities.Job
	jobByPair    map[string]string
	profiles     map[string]entities.UserProfile
	settlements  map[entities.SettlementID]entities.SettlementRecord
	claims       map[string]map[string]entities.EventClaim
	outbox       []outboxRow
	outboxByID   map[string]int
	ids          ids.UUIDGenerator
	outboxSerial int
}

func NewStore(seed Seed) *Store {
	store := &Store{
		contracts:   make(map[string]entities.ContractDefinition, len(seed.Contracts)),
		jobs:        make(map[string]entities.Job),
		jobByPair:   make(map[string]string),
		profiles:    make(map[string]entities.UserProfile, len(seed.Profiles)),
		settlements: make(map[entities.SettlementID]entities.SettlementRecord),
		claims:      make(map[string]map[string]entities.EventClaim),
		outboxByID:  make(map[string]int),
	}
	for _, contract := range seed.Contracts {
		store.contracts[strings.TrimSpace(contract.ContractID)] = cloneContract(contract)
	}
	for _, profile := range seed.Profiles {
		if profile.Badges == nil {
			profile.Badges = map[string]struct{}{}
		}
		store.profiles[strings.TrimSpace(profile.UserID)] = profile.Clone()
	}
	return store
}

func pairKey(userID string, contractID string) string {
	return strings.TrimSpace(userID) + "\x00" + strings.TrimSpace(contractID)
}

func (s *Store) PutContract(contract entities.ContractDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[strings.TrimSpace(contract.ContractID)] = cloneContract(contract)
}

func (s *Store) GetContract(_ context.Context, contractID string) (entities.ContractDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contract, ok := s.contracts[strings.TrimSpace(contractID)]
	if !ok {
		return entities.ContractDefinition{}, domainerrors.ErrContractNotFound
	}
	return cloneContract(contract), nil
}

func (s *Store) CreateJob(_ context.Context, job entities.Job, events []ports.EventEnvelope) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(job.UserID, job.ContractID)
	if _, exists := s.jobByPair[key]; exists {
		return domainerrors.ErrJobAlreadyExists
	}
	if _, exists := s.jobs[job.JobID]; exists {
		return domainerrors.ErrJobAlreadyExists
	}
	rows, err := s.outboxRowsLocked(events)
	if err != nil {
		return err
	}
	s.jobs[job.JobID] = job.Clone()
	s.jobByPair[key] = job.JobID
	s.appendOutboxLocked(rows)
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (entities.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[strings.TrimSpace(jobID)]
	if !ok {
		return entities.Job{}, domainerrors.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (s *Store) GetJobByUserContract(_ context.Context, userID string, contractID string) (entities.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobID, ok := s.jobByPair[pairKey(userID, contractID)]
	if !ok {
		return entities.Job{}, domainerrors.ErrJobNotFound
	}
	return s.jobs[jobID].Clone(), nil
}

func (s *Store) UpdateJob(_ context.Context, expectedVersion int64, job entities.Job, events []ports.EventEnvelope) error {
	if err := job.CheckInvariants(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.casLocked(expectedVersion, job); err != nil {
		return err
	}
	rows, err := s.outboxRowsLocked(events)
	if err != nil {
		return err
	}
	s.jobs[job.JobID] = job.Clone()
	s.appendOutboxLocked(rows)
	return nil
}

func (s *Store) CommitApproval(_ context.Context, commit ports.ApprovalCommit) error {
	if err := commit.Job.CheckInvariants(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.casLocked(commit.ExpectedVersion, commit.Job); err != nil {
		return err
	}
	key := entities.SettlementKey(commit.Settlement.JobID, commit.Settlement.StageNumber)
	if _, exists := s.settlements[key]; exists {
		return domainerrors.ErrStageAlreadySettled
	}
	for _, claim := range commit.Claims {
		if _, claimed := s.claims[claim.UserID][claim.EventID]; claimed {
			return domainerrors.ErrEventAlreadyClaimed
		}
	}
	rows, err := s.outboxRowsLocked(commit.Events)
	if err != nil {
		return err
	}

	// Nothing below can fail, so the commit is all or nothing.
	s.jobs[commit.Job.JobID] = commit.Job.Clone()
	s.settlements[key] = cloneSettlement(commit.Settlement)
	for _, claim := range commit.Claims {
		byEvent, ok := s.claims[claim.UserID]
		if !ok {
			byEvent = make(map[string]entities.EventClaim)
			s.claims[claim.UserID] = byEvent
		}
		byEvent[claim.EventID] = claim
	}
	profile, ok := s.profiles[commit.Credit.UserID]
	if !ok {
		profile = entities.UserProfile{
			UserID: commit.Credit.UserID,
			Role:   entities.UserRoleParticipant,
			Badges: map[string]struct{}{},
		}
	}
	s.profiles[commit.Credit.UserID] = profile.Apply(commit.Credit, commit.Settlement.SettledAt)
	s.appendOutboxLocked(rows)
	return nil
}

func (s *Store) ListJobs(_ context.Context, filter ports.JobFilter) ([]entities.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userSet map[string]struct{}
	if len(filter.UserIDs) > 0 {
		userSet = make(map[string]struct{}, len(filter.UserIDs))
		for _, userID := range filter.UserIDs {
			userSet[strings.TrimSpace(userID)] = struct{}{}
		}
	}
	title := strings.ToLower(strings.TrimSpace(filter.ContractTitle))

	items := make([]entities.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if userID := strings.TrimSpace(filter.UserID); userID != "" && job.UserID != userID {
			continue
		}
		if contractID := strings.TrimSpace(filter.ContractID); contractID != "" && job.ContractID != contractID {
			continue
		}
		if title != "" && strings.ToLower(strings.TrimSpace(job.ContractTitle)) != title {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if userSet != nil {
			if _, ok := userSet[job.UserID]; !ok {
				continue
			}
		}
		items = append(items, job.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartedAt.Equal(items[j].StartedAt) {
			return items[i].JobID < items[j].JobID
		}
		return items[i].StartedAt.Before(items[j].StartedAt)
	})
	return items, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (entities.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[strings.TrimSpace(userID)]
	if !ok {
		return entities.UserProfile{}, domainerrors.ErrProfileNotFound
	}
	return profile.Clone(), nil
}

// UpsertProfile stores descriptive fields. Balances, counters and badges of
// an existing profile are kept; only CommitApproval moves them.
func (s *Store) UpsertProfile(_ context.Context, profile entities.UserProfile) error {
	userID := strings.TrimSpace(profile.UserID)
	if userID == "" {
		return domainerrors.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := profile.Clone()
	next.UserID = userID
	if existing, ok := s.profiles[userID]; ok {
		next.CurrencyBalance = existing.CurrencyBalance
		next.XPBalance = existing.XPBalance
		next.CompletedJobsCount = existing.CompletedJobsCount
		next.Badges = existing.Clone().Badges
	}
	s.profiles[userID] = next
	return nil
}

func (s *Store) ListProfiles(_ context.Context, filter ports.ProfileFilter) ([]entities.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userSet map[string]struct{}
	if len(filter.UserIDs) > 0 {
		userSet = make(map[string]struct{}, len(filter.UserIDs))
		for _, userID := range filter.UserIDs {
			userSet[strings.TrimSpace(userID)] = struct{}{}
		}
	}
	classID := strings.TrimSpace(filter.ClassID)

	items := make([]entities.UserProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		if classID != "" && profile.ClassID != classID {
			continue
		}
		if userSet != nil {
			if _, ok := userSet[profile.UserID]; !ok {
				continue
			}
		}
		items = append(items, profile.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s *Store) ListClaimedEventIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byEvent := s.claims[strings.TrimSpace(userID)]
	items := make([]string, 0, len(byEvent))
	for eventID := range byEvent {
		items = append(items, eventID)
	}
	sort.Strings(items)
	return items, nil
}

func (s *Store) GetSettlement(_ context.Context, jobID string, stageNumber int) (entities.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.settlements[entities.SettlementKey(strings.TrimSpace(jobID), stageNumber)]
	if !ok {
		return entities.SettlementRecord{}, domainerrors.ErrSettlementNotFound
	}
	return cloneSettlement(record), nil
}

func (s *Store) ListSettlements(_ context.Context, jobID string) ([]entities.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobID = strings.TrimSpace(jobID)
	items := make([]entities.SettlementRecord, 0)
	for key, record := range s.settlements {
		if key.JobID == jobID {
			items = append(items, cloneSettlement(record))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].StageNumber < items[j].StageNumber
	})
	return items, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.publishedAt != nil {
			continue
		}
		message := row.message
		message.Payload = append([]byte(nil), row.message.Payload...)
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.outboxByID[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	at := publishedAt.UTC()
	s.outbox[index].publishedAt = &at
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return s.ids.NewID(ctx)
}

func (s *Store) JobID(userID string, contractID string) string {
	return s.ids.JobID(userID, contractID)
}

func (s *Store) casLocked(expectedVersion int64, job entities.Job) error {
	current, ok := s.jobs[job.JobID]
	if !ok {
		return domainerrors.ErrJobNotFound
	}
	if current.Version != expectedVersion || job.Version <= expectedVersion {
		return domainerrors.ErrStaleJobState
	}
	return nil
}

func (s *Store) outboxRowsLocked(events []ports.EventEnvelope) ([]outboxRow, error) {
	rows := make([]outboxRow, 0, len(events))
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return nil, err
		}
		rows = append(rows, outboxRow{message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			CreatedAt:    event.OccurredAt,
		}})
	}
	return rows, nil
}

func (s *Store) appendOutboxLocked(rows []outboxRow) {
	for _, row := range rows {
		if row.message.OutboxID == "" {
			s.outboxSerial++
			row.message.OutboxID = "outbox-" + strconv.Itoa(s.outboxSerial)
		}
		s.outboxByID[row.message.OutboxID] = len(s.outbox)
		s.outbox = append(s.outbox, row)
	}
}

func cloneContract(contract entities.ContractDefinition) entities.ContractDefinition {
	contract.Stages = append([]entities.StageTemplate(nil), contract.Stages...)
	return contract
}

func cloneSettlement(record entities.SettlementRecord) entities.SettlementRecord {
	record.AppliedEventIDs = append([]string(nil), record.AppliedEventIDs...)
	record.ClaimedEventIDs = append([]string(nil), record.ClaimedEventIDs...)
	record.Breakdown.RandomRolls = append([]entities.RandomRoll(nil), record.Breakdown.RandomRolls...)
	record.Breakdown.SkippedEventIDs = append([]string(nil), record.Breakdown.SkippedEventIDs...)
	return record
}
