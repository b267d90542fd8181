package integration

import (
	"context"
	"errors"

	boardentities "contracthub/contexts/community/leaderboard-service/domain/entities"
	boarderrors "contracthub/contexts/community/leaderboard-service/domain/errors"
	boardports "contracthub/contexts/community/leaderboard-service/ports"
	jobentities "contracthub/contexts/progression/job-service/domain/entities"
	joberrors "contracthub/contexts/progression/job-service/domain/errors"
	jobports "contracthub/contexts/progression/job-service/ports"
)

// LeaderboardSource builds ranking snapshots from the job-service store.
type LeaderboardSource struct {
	Profiles jobports.ProfileRepository
	Jobs     jobports.JobRepository
}

var (
	_ boardports.SnapshotReader  = LeaderboardSource{}
	_ boardports.ViewerDirectory = LeaderboardSource{}
)

func (s LeaderboardSource) ReadSnapshot(ctx context.Context, scope boardports.SnapshotScope) (boardentities.Snapshot, error) {
	filter := jobports.ProfileFilter{}
	if !scope.All {
		filter.ClassID = scope.ClassID
	}
	profiles, err := s.Profiles.ListProfiles(ctx, filter)
	if err != nil {
		return boardentities.Snapshot{}, err
	}
	if !scope.All && scope.ClassID == "" {
		// An empty class filter lists everyone; keep only the unclassed.
		unclassed := profiles[:0]
		for _, profile := range profiles {
			if profile.ClassID == "" {
				unclassed = append(unclassed, profile)
			}
		}
		profiles = unclassed
	}

	snapshot := boardentities.Snapshot{
		Users: make([]boardentities.UserSummary, 0, len(profiles)),
	}
	userIDs := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		userIDs = append(userIDs, profile.UserID)
		snapshot.Users = append(snapshot.Users, boardentities.UserSummary{
			UserID:        profile.UserID,
			DisplayName:   profile.DisplayName,
			ClassID:       profile.ClassID,
			XP:            profile.XPBalance,
			Currency:      profile.CurrencyBalance,
			CompletedJobs: profile.CompletedJobsCount,
		})
	}
	if len(userIDs) == 0 {
		return snapshot, nil
	}

	jobs, err := s.Jobs.ListJobs(ctx, jobports.JobFilter{UserIDs: userIDs})
	if err != nil {
		return boardentities.Snapshot{}, err
	}
	snapshot.Jobs = make([]boardentities.JobSummary, 0, len(jobs))
	for _, job := range jobs {
		snapshot.Jobs = append(snapshot.Jobs, boardentities.JobSummary{
			UserID:        job.UserID,
			ContractID:    job.ContractID,
			ContractTitle: job.ContractTitle,
			Progress:      job.Progress(),
			StageCount:    job.StageCount,
			Completed:     job.Status == jobentities.JobStatusCompleted,
		})
	}
	return snapshot, nil
}

func (s LeaderboardSource) LookupViewer(ctx context.Context, userID string) (boardentities.Viewer, error) {
	profile, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, joberrors.ErrProfileNotFound) {
			return boardentities.Viewer{}, boarderrors.ErrViewerNotFound
		}
		return boardentities.Viewer{}, err
	}
	return boardentities.Viewer{
		UserID:  profile.UserID,
		ClassID: profile.ClassID,
		IsAdmin: profile.Role == jobentities.UserRoleAdmin,
	}, nil
}
