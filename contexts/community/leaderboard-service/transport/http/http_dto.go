package http

type EntryDTO struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	ClassID       string `json:"class_id,omitempty"`
	XP            int64  `json:"xp"`
	Currency      int64  `json:"currency"`
	CompletedJobs int    `json:"completed_jobs"`
	Progress      int    `json:"progress,omitempty"`
	StageCount    int    `json:"stage_count,omitempty"`
	Completed     bool   `json:"completed,omitempty"`
}

type OverallResponse struct {
	Items []EntryDTO `json:"items"`
}

type ContractBoardResponse struct {
	Title string     `json:"title"`
	Items []EntryDTO `json:"items"`
}

type ContractTitlesResponse struct {
	Items []string `json:"items"`
}
