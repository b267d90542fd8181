package leaderboardservice

import (
	"log/slog"

	httpadapter "contracthub/contexts/community/leaderboard-service/adapters/http"
	"contracthub/contexts/community/leaderboard-service/adapters/memory"
	"contracthub/contexts/community/leaderboard-service/application"
	"contracthub/contexts/community/leaderboard-service/domain/entities"
	"contracthub/contexts/community/leaderboard-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Snapshots ports.SnapshotReader
	Viewers   ports.ViewerDirectory
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			Service: application.Service{
				Snapshots: deps.Snapshots,
				Viewers:   deps.Viewers,
				Logger:    deps.Logger,
			},
		},
	}
}

func NewInMemoryModule(snapshot entities.Snapshot, viewers []entities.Viewer, logger *slog.Logger) Module {
	store := memory.NewStore(snapshot, viewers)
	module := NewModule(Dependencies{
		Snapshots: store,
		Viewers:   store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
