package memory

import (
	"strings"
	"testing"

	"contracthub/contexts/progression/job-service/domain/entities"
)

const sampleSeed = `
contracts:
  - contract_id: bakery
    version: 3
    title: Bakery Website
    payout_xp: 120
    payout_currency: 40
    completion_badge: baker
    stages:
      - name: Wireframe
        requirement: Upload a sketch
      - name: Build
        payout_xp: 200
  - contract_id: legacy
    title: Old Contract
    status: archived
    stages:
      - name: Only
profiles:
  - user_id: ada
    display_name: Ada
    class_id: class-a
    role: teacher
    xp: 500
    badges: [starter]
events:
  - event_id: ignored-here
`

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(sampleSeed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(seed.Contracts) != 2 || len(seed.Profiles) != 1 {
		t.Fatalf("unexpected seed sizes: %d contracts %d profiles", len(seed.Contracts), len(seed.Profiles))
	}

	bakery := seed.Contracts[0]
	if bakery.Status != entities.ContractStatusOpen || bakery.Version != 3 || bakery.BasePayoutXP != 120 {
		t.Fatalf("unexpected contract: %+v", bakery)
	}
	if bakery.Stages[0].SequenceNumber != 1 || bakery.Stages[1].SequenceNumber != 2 || bakery.Stages[1].PayoutXP != 200 {
		t.Fatalf("unexpected stages: %+v", bakery.Stages)
	}
	if seed.Contracts[1].Status != entities.ContractStatusClosed {
		t.Fatalf("expected archived contract to be closed")
	}

	ada := seed.Profiles[0]
	if ada.Role != entities.UserRoleReviewer || ada.XPBalance != 500 || !ada.HasBadge("starter") {
		t.Fatalf("unexpected profile: %+v", ada)
	}
}

func TestParseSeedRejectsIncompleteEntries(t *testing.T) {
	tests := map[string]string{
		"missing title":  "contracts:\n  - contract_id: x\n",
		"bad status":     "contracts:\n  - contract_id: x\n    title: X\n    status: paused\n",
		"anonymous user": "profiles:\n  - display_name: nobody\n",
		"not yaml":       "contracts: [",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseSeed([]byte(raw)); err == nil {
				t.Fatalf("expected error for %s", strings.TrimSpace(name))
			}
		})
	}
}

func TestLoadSeedFileEmptyPath(t *testing.T) {
	seed, err := LoadSeedFile("  ")
	if err != nil {
		t.Fatalf("expected empty seed, got %v", err)
	}
	if len(seed.Contracts) != 0 || len(seed.Profiles) != 0 {
		t.Fatalf("expected empty seed, got %+v", seed)
	}
}
