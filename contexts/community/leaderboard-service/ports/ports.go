package ports

import (
	"context"

	"contracthub/contexts/community/leaderboard-service/domain/entities"
)

// SnapshotScope narrows what a reader needs to load. An empty ClassID
// with All set means every user.
type SnapshotScope struct {
	ClassID string
	All     bool
}

type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, scope SnapshotScope) (entities.Snapshot, error)
}

type ViewerDirectory interface {
	LookupViewer(ctx context.Context, userID string) (entities.Viewer, error)
}
