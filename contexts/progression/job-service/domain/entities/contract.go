package entities

import (
	"sort"
	"strings"
)

// ContractDefinition is a read-only catalog entry. Jobs copy what they need
// at start time and never look at the catalog again.
type ContractDefinition struct {
	ContractID         string
	Version            int
	Title              string
	Status             ContractStatus
	BasePayoutCurrency int64
	BasePayoutXP       int64
	CompletionBadge    string
	Stages             []StageTemplate
}

type StageTemplate struct {
	SequenceNumber  int
	Name            string
	RequirementText string
	// Zero means the contract base payout applies.
	PayoutXP       int64
	PayoutCurrency int64
}

func (c ContractDefinition) IsOpen() bool {
	return c.Status == ContractStatusOpen
}

// OrderedStages returns the templates sorted by SequenceNumber without
// touching the catalog slice.
func (c ContractDefinition) OrderedStages() []StageTemplate {
	stages := append([]StageTemplate(nil), c.Stages...)
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].SequenceNumber < stages[j].SequenceNumber
	})
	return stages
}

func (c ContractDefinition) Validate() bool {
	return strings.TrimSpace(c.ContractID) != "" &&
		strings.TrimSpace(c.Title) != "" &&
		c.BasePayoutXP >= 0 &&
		c.BasePayoutCurrency >= 0
}

func (t StageTemplate) payout(contract ContractDefinition) (int64, int64) {
	xp := t.PayoutXP
	if xp <= 0 {
		xp = contract.BasePayoutXP
	}
	currency := t.PayoutCurrency
	if currency <= 0 {
		currency = contract.BasePayoutCurrency
	}
	return xp, currency
}
