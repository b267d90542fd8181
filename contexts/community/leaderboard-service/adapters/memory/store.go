package memory

import (
	"context"
	"strings"
	"sync"

	"contracthub/contexts/community/leaderboard-service/domain/entities"
	domainerrors "contracthub/contexts/community/leaderboard-service/domain/errors"
	"contracthub/contexts/community/leaderboard-service/ports"
)

// Store serves a fixed snapshot. It backs tests and demo deployments where
// no job store is wired in.
type Store struct {
	mu       sync.RWMutex
	snapshot entities.Snapshot
	viewers  map[string]entities.Viewer
}

func NewStore(snapshot entities.Snapshot, viewers []entities.Viewer) *Store {
	byID := make(map[string]entities.Viewer, len(viewers))
	for _, viewer := range viewers {
		byID[strings.TrimSpace(viewer.UserID)] = viewer
	}
	return &Store{snapshot: snapshot, viewers: byID}
}

func (s *Store) Replace(snapshot entities.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
}

func (s *Store) ReadSnapshot(_ context.Context, scope ports.SnapshotScope) (entities.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := entities.Snapshot{
		Users: make([]entities.UserSummary, 0, len(s.snapshot.Users)),
		Jobs:  make([]entities.JobSummary, 0, len(s.snapshot.Jobs)),
	}
	included := make(map[string]struct{}, len(s.snapshot.Users))
	for _, user := range s.snapshot.Users {
		if !scope.All && strings.TrimSpace(user.ClassID) != strings.TrimSpace(scope.ClassID) {
			continue
		}
		included[user.UserID] = struct{}{}
		out.Users = append(out.Users, user)
	}
	for _, job := range s.snapshot.Jobs {
		if _, ok := included[job.UserID]; ok {
			out.Jobs = append(out.Jobs, job)
		}
	}
	return out, nil
}

func (s *Store) LookupViewer(_ context.Context, userID string) (entities.Viewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	viewer, ok := s.viewers[strings.TrimSpace(userID)]
	if !ok {
		return entities.Viewer{}, domainerrors.ErrViewerNotFound
	}
	return viewer, nil
}
