package entities

import (
	"strings"
	"time"

	domainerrors "contracthub/contexts/rewards/reward-engine/domain/errors"
)

type SubmissionType string

const (
	SubmissionTypeContractStage SubmissionType = "contract_stage"
	SubmissionTypeSideHustle    SubmissionType = "side_hustle"
	SubmissionTypeMission       SubmissionType = "mission"
)

var submissionTypeAliases = map[string]SubmissionType{
	"contract":       SubmissionTypeContractStage,
	"contracts":      SubmissionTypeContractStage,
	"contract_stage": SubmissionTypeContractStage,
	"stage":          SubmissionTypeContractStage,
	"side_hustle":    SubmissionTypeSideHustle,
	"side_hustles":   SubmissionTypeSideHustle,
	"sidehustle":     SubmissionTypeSideHustle,
	"side-hustle":    SubmissionTypeSideHustle,
	"mission":        SubmissionTypeMission,
	"missions":       SubmissionTypeMission,
}

var allTypeAliases = map[string]struct{}{
	"all":             {},
	"all_submissions": {},
	"any":             {},
}

var allScopeAliases = map[string]struct{}{
	"all":      {},
	"global":   {},
	"everyone": {},
	"*":        {},
}

func NormalizeToken(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(value, " ", "_")
}

// ParseSubmissionType maps every known spelling onto a category.
func ParseSubmissionType(raw string) (SubmissionType, error) {
	if kind, ok := submissionTypeAliases[NormalizeToken(raw)]; ok {
		return kind, nil
	}
	return "", domainerrors.ErrUnknownSubmissionType
}

func IsAllTypes(raw string) bool {
	_, ok := allTypeAliases[NormalizeToken(raw)]
	return ok
}

func IsAllScope(raw string) bool {
	_, ok := allScopeAliases[NormalizeToken(raw)]
	return ok
}

type RandomRange struct {
	Min int64
	Max int64
}

// Valid reports whether a draw can be made from the range.
func (r RandomRange) Valid() bool {
	return r.Min >= 0 && r.Max >= 0 && r.Min <= r.Max
}

// Event is a time-boxed promotional modifier. Percents are whole numbers and
// add up across events rather than compounding.
type Event struct {
	EventID             string
	Name                string
	Enabled             bool
	StartAt             *time.Time
	EndAt               *time.Time
	OrgID               string
	ClassID             string
	Scope               string
	ClassIDs            []string
	AppliesToTypes      []string
	OneTimePerUser      bool
	XPPercent           int
	CurrencyPercent     int
	FlatCurrencyBonus   int64
	RandomCurrencyBonus *RandomRange
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return domainerrors.ErrInvalidEvent
	}
	if e.StartAt != nil && e.EndAt != nil && e.EndAt.Before(*e.StartAt) {
		return domainerrors.ErrInvalidEvent
	}
	return nil
}

func (e Event) Clone() Event {
	out := e
	out.ClassIDs = append([]string(nil), e.ClassIDs...)
	out.AppliesToTypes = append([]string(nil), e.AppliesToTypes...)
	if e.StartAt != nil {
		startAt := *e.StartAt
		out.StartAt = &startAt
	}
	if e.EndAt != nil {
		endAt := *e.EndAt
		out.EndAt = &endAt
	}
	if e.RandomCurrencyBonus != nil {
		bonus := *e.RandomCurrencyBonus
		out.RandomCurrencyBonus = &bonus
	}
	return out
}
