package memory

import (
	"fmt"
	"os"
	"strings"

	"contracthub/contexts/progression/job-service/domain/entities"

	"gopkg.in/yaml.v3"
)

// Seed is the initial content of an in-memory store.
type Seed struct {
	Contracts []entities.ContractDefinition
	Profiles  []entities.UserProfile
}

type seedDocument struct {
	Contracts []seedContract `yaml:"contracts"`
	Profiles  []seedProfile  `yaml:"profiles"`
}

type seedContract struct {
	ContractID      string      `yaml:"contract_id"`
	Version         int         `yaml:"version"`
	Title           string      `yaml:"title"`
	Status          string      `yaml:"status"`
	PayoutCurrency  int64       `yaml:"payout_currency"`
	PayoutXP        int64       `yaml:"payout_xp"`
	CompletionBadge string      `yaml:"completion_badge"`
	Stages          []seedStage `yaml:"stages"`
}

type seedStage struct {
	Sequence       int    `yaml:"sequence"`
	Name           string `yaml:"name"`
	Requirement    string `yaml:"requirement"`
	PayoutXP       int64  `yaml:"payout_xp"`
	PayoutCurrency int64  `yaml:"payout_currency"`
}

type seedProfile struct {
	UserID      string   `yaml:"user_id"`
	DisplayName string   `yaml:"display_name"`
	ClassID     string   `yaml:"class_id"`
	OrgID       string   `yaml:"org_id"`
	Role        string   `yaml:"role"`
	XP          int64    `yaml:"xp"`
	Currency    int64    `yaml:"currency"`
	Badges      []string `yaml:"badges"`
}

// LoadSeedFile reads contracts and profiles from a YAML file. Keys owned by
// other contexts (events) are ignored. An empty path yields an empty seed.
func LoadSeedFile(path string) (Seed, error) {
	if strings.TrimSpace(path) == "" {
		return Seed{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (Seed, error) {
	var doc seedDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Seed{}, fmt.Errorf("decode seed file: %w", err)
	}

	seed := Seed{
		Contracts: make([]entities.ContractDefinition, 0, len(doc.Contracts)),
		Profiles:  make([]entities.UserProfile, 0, len(doc.Profiles)),
	}
	for _, item := range doc.Contracts {
		status := entities.ContractStatusOpen
		if strings.TrimSpace(item.Status) != "" {
			parsed, err := entities.ParseContractStatus(item.Status)
			if err != nil {
				return Seed{}, fmt.Errorf("contract %q: %w", item.ContractID, err)
			}
			status = parsed
		}
		contract := entities.ContractDefinition{
			ContractID:         strings.TrimSpace(item.ContractID),
			Version:            item.Version,
			Title:              strings.TrimSpace(item.Title),
			Status:             status,
			BasePayoutCurrency: item.PayoutCurrency,
			BasePayoutXP:       item.PayoutXP,
			CompletionBadge:    strings.TrimSpace(item.CompletionBadge),
			Stages:             make([]entities.StageTemplate, 0, len(item.Stages)),
		}
		for index, stage := range item.Stages {
			sequence := stage.Sequence
			if sequence == 0 {
				sequence = index + 1
			}
			contract.Stages = append(contract.Stages, entities.StageTemplate{
				SequenceNumber:  sequence,
				Name:            strings.TrimSpace(stage.Name),
				RequirementText: strings.TrimSpace(stage.Requirement),
				PayoutXP:        stage.PayoutXP,
				PayoutCurrency:  stage.PayoutCurrency,
			})
		}
		if !contract.Validate() {
			return Seed{}, fmt.Errorf("contract %q: incomplete definition", item.ContractID)
		}
		seed.Contracts = append(seed.Contracts, contract)
	}
	for _, item := range doc.Profiles {
		if strings.TrimSpace(item.UserID) == "" {
			return Seed{}, fmt.Errorf("profile without user_id")
		}
		seed.Profiles = append(seed.Profiles, entities.UserProfile{
			UserID:          strings.TrimSpace(item.UserID),
			DisplayName:     strings.TrimSpace(item.DisplayName),
			ClassID:         strings.TrimSpace(item.ClassID),
			OrgID:           strings.TrimSpace(item.OrgID),
			Role:            entities.ParseUserRole(item.Role),
			XPBalance:       item.XP,
			CurrencyBalance: item.Currency,
			Badges:          entities.BadgeSet(item.Badges),
		})
	}
	return seed, nil
}
