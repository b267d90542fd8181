package services

import (
	"sort"
	"strings"

	"contracthub/contexts/community/leaderboard-service/domain/entities"
)

const OverallLimit = 50

// Overall ranks visible users with positive XP by XP, highest first. Ties
// keep snapshot order. At most OverallLimit entries are returned.
func Overall(snapshot entities.Snapshot, viewer entities.Viewer) []entities.Entry {
	entries := make([]entities.Entry, 0, len(snapshot.Users))
	for _, user := range snapshot.Users {
		if !viewer.CanSee(user) || user.XP <= 0 {
			continue
		}
		entries = append(entries, entryFor(user))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].XP > entries[j].XP
	})
	if len(entries) > OverallLimit {
		entries = entries[:OverallLimit]
	}
	return assignRanks(entries)
}

// PerContract ranks visible users holding a job for contractTitle by stage
// progress, then XP. A completed job outranks any job still in flight.
func PerContract(snapshot entities.Snapshot, viewer entities.Viewer, contractTitle string) []entities.Entry {
	key := entities.NormalizeTitle(contractTitle)
	if key == "" {
		return []entities.Entry{}
	}

	best := make(map[string]entities.JobSummary)
	for _, job := range snapshot.Jobs {
		if entities.NormalizeTitle(job.ContractTitle) != key {
			continue
		}
		if current, ok := best[job.UserID]; !ok || job.Progress > current.Progress {
			best[job.UserID] = job
		}
	}

	entries := make([]entities.Entry, 0, len(best))
	for _, user := range snapshot.Users {
		job, ok := best[user.UserID]
		if !ok || !viewer.CanSee(user) {
			continue
		}
		entry := entryFor(user)
		entry.Progress = job.Progress
		entry.StageCount = job.StageCount
		entry.Completed = job.Completed
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Progress != entries[j].Progress {
			return entries[i].Progress > entries[j].Progress
		}
		return entries[i].XP > entries[j].XP
	})
	return assignRanks(entries)
}

// ListContractTitles returns the distinct titles of jobs held by visible
// users, compared case-insensitively and sorted.
func ListContractTitles(snapshot entities.Snapshot, viewer entities.Viewer) []string {
	visible := make(map[string]struct{}, len(snapshot.Users))
	for _, user := range snapshot.Users {
		if viewer.CanSee(user) {
			visible[user.UserID] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	titles := make([]string, 0)
	for _, job := range snapshot.Jobs {
		if _, ok := visible[job.UserID]; !ok {
			continue
		}
		key := entities.NormalizeTitle(job.ContractTitle)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, strings.TrimSpace(job.ContractTitle))
	}
	sort.SliceStable(titles, func(i, j int) bool {
		return entities.NormalizeTitle(titles[i]) < entities.NormalizeTitle(titles[j])
	})
	return titles
}

func entryFor(user entities.UserSummary) entities.Entry {
	return entities.Entry{
		UserID:        user.UserID,
		DisplayName:   user.DisplayName,
		ClassID:       user.ClassID,
		XP:            user.XP,
		Currency:      user.Currency,
		CompletedJobs: user.CompletedJobs,
	}
}

func assignRanks(entries []entities.Entry) []entities.Entry {
	for index := range entries {
		entries[index].Rank = index + 1
	}
	return entries
}
