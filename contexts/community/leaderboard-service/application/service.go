package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"contracthub/contexts/community/leaderboard-service/domain/entities"
	domainerrors "contracthub/contexts/community/leaderboard-service/domain/errors"
	"contracthub/contexts/community/leaderboard-service/domain/services"
	"contracthub/contexts/community/leaderboard-service/ports"
)

type Service struct {
	Snapshots ports.SnapshotReader
	Viewers   ports.ViewerDirectory
	Logger    *slog.Logger
}

type ContractBoard struct {
	Title   string
	Entries []entities.Entry
}

func (s Service) Overall(ctx context.Context, viewerID string) ([]entities.Entry, error) {
	viewer, snapshot, err := s.load(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return services.Overall(snapshot, viewer), nil
}

func (s Service) PerContract(ctx context.Context, viewerID string, contractTitle string) (ContractBoard, error) {
	title := strings.TrimSpace(contractTitle)
	if title == "" {
		return ContractBoard{}, domainerrors.ErrMissingTitle
	}
	viewer, snapshot, err := s.load(ctx, viewerID)
	if err != nil {
		return ContractBoard{}, err
	}
	return ContractBoard{
		Title:   title,
		Entries: services.PerContract(snapshot, viewer, title),
	}, nil
}

func (s Service) ContractTitles(ctx context.Context, viewerID string) ([]string, error) {
	viewer, snapshot, err := s.load(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return services.ListContractTitles(snapshot, viewer), nil
}

// load resolves the viewer and reads only the users that viewer may see.
// An unknown viewer ranks within the unclassed group.
func (s Service) load(ctx context.Context, viewerID string) (entities.Viewer, entities.Snapshot, error) {
	logger := resolveLogger(s.Logger)
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return entities.Viewer{}, entities.Snapshot{}, domainerrors.ErrInvalidInput
	}

	viewer := entities.Viewer{UserID: viewerID}
	if s.Viewers != nil {
		found, err := s.Viewers.LookupViewer(ctx, viewerID)
		switch {
		case err == nil:
			viewer = found
		case errors.Is(err, domainerrors.ErrViewerNotFound):
		default:
			return entities.Viewer{}, entities.Snapshot{}, err
		}
	}

	snapshot, err := s.Snapshots.ReadSnapshot(ctx, ports.SnapshotScope{
		ClassID: viewer.ClassID,
		All:     viewer.IsAdmin,
	})
	if err != nil {
		logger.Error("leaderboard snapshot read failed",
			"event", "leaderboard_snapshot_failed",
			"module", "community/leaderboard-service",
			"layer", "application",
			"viewer_id", viewerID,
			"error", err.Error(),
		)
		return entities.Viewer{}, entities.Snapshot{}, err
	}
	return viewer, snapshot, nil
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
