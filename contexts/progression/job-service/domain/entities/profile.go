package entities

import (
	"sort"
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleParticipant UserRole = "participant"
	UserRoleReviewer    UserRole = "reviewer"
	UserRoleAdmin       UserRole = "admin"
)

func ParseUserRole(raw string) UserRole {
	switch normalizeToken(raw) {
	case "admin", "administrator":
		return UserRoleAdmin
	case "reviewer", "supervisor", "teacher":
		return UserRoleReviewer
	default:
		return UserRoleParticipant
	}
}

type UserProfile struct {
	UserID             string
	DisplayName        string
	ClassID            string
	OrgID              string
	Role               UserRole
	CurrencyBalance    int64
	XPBalance          int64
	CompletedJobsCount int
	Badges             map[string]struct{}
	UpdatedAt          time.Time
}

// RewardCredit is the delta one approval applies to a profile.
type RewardCredit struct {
	UserID       string
	XP           int64
	Currency     int64
	CompletedJob bool
	Badge        string
}

func (p UserProfile) Clone() UserProfile {
	out := p
	out.Badges = make(map[string]struct{}, len(p.Badges))
	for badge := range p.Badges {
		out.Badges[badge] = struct{}{}
	}
	return out
}

func (p UserProfile) HasBadge(badge string) bool {
	_, ok := p.Badges[strings.TrimSpace(badge)]
	return ok
}

// BadgeList returns badges in a stable order for display and storage.
func (p UserProfile) BadgeList() []string {
	items := make([]string, 0, len(p.Badges))
	for badge := range p.Badges {
		items = append(items, badge)
	}
	sort.Strings(items)
	return items
}

// Apply returns the profile after credit is added.
func (p UserProfile) Apply(credit RewardCredit, now time.Time) UserProfile {
	out := p.Clone()
	if out.UserID == "" {
		out.UserID = strings.TrimSpace(credit.UserID)
	}
	out.XPBalance += credit.XP
	out.CurrencyBalance += credit.Currency
	if credit.CompletedJob {
		out.CompletedJobsCount++
	}
	if badge := strings.TrimSpace(credit.Badge); badge != "" {
		out.Badges[badge] = struct{}{}
	}
	out.UpdatedAt = now.UTC()
	return out
}

func BadgeSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}
