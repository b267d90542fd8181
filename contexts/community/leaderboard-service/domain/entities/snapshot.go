package entities

import "strings"

// Snapshot is a read-only view of users and their jobs taken at one point.
type Snapshot struct {
	Users []UserSummary
	Jobs  []JobSummary
}

type UserSummary struct {
	UserID        string
	DisplayName   string
	ClassID       string
	XP            int64
	Currency      int64
	CompletedJobs int
}

type JobSummary struct {
	UserID        string
	ContractID    string
	ContractTitle string
	// Progress is the current stage number, or StageCount+1 once completed.
	Progress   int
	StageCount int
	Completed  bool
}

type Viewer struct {
	UserID  string
	ClassID string
	IsAdmin bool
}

// CanSee reports whether the viewer may rank user.
func (v Viewer) CanSee(user UserSummary) bool {
	if v.IsAdmin {
		return true
	}
	return strings.TrimSpace(user.ClassID) == strings.TrimSpace(v.ClassID)
}

type Entry struct {
	Rank          int
	UserID        string
	DisplayName   string
	ClassID       string
	XP            int64
	Currency      int64
	CompletedJobs int
	Progress      int
	StageCount    int
	Completed     bool
}

// NormalizeTitle is the comparison key for contract titles.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
