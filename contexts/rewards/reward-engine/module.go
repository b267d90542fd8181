package rewardengine

import (
	"log/slog"

	httpadapter "contracthub/contexts/rewards/reward-engine/adapters/http"
	"contracthub/contexts/rewards/reward-engine/adapters/memory"
	"contracthub/contexts/rewards/reward-engine/adapters/random"
	"contracthub/contexts/rewards/reward-engine/application"
	"contracthub/contexts/rewards/reward-engine/domain/entities"
	"contracthub/contexts/rewards/reward-engine/ports"

	"github.com/go-playground/validator/v10"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Catalog *memory.Catalog
}

type Dependencies struct {
	Catalog ports.EventCatalog
	Random  ports.RandomSource
	Clock   ports.Clock
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	rng := deps.Random
	if rng == nil {
		rng = random.NewUnseededSource()
	}
	service := application.Service{
		Catalog: deps.Catalog,
		Random:  rng,
		Clock:   deps.Clock,
		Logger:  deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service:  service,
			Validate: validator.New(),
		},
	}
}

func NewInMemoryModule(seed []entities.Event, rng ports.RandomSource, logger *slog.Logger) Module {
	catalog := memory.NewCatalog(seed)
	module := NewModule(Dependencies{
		Catalog: catalog,
		Random:  rng,
		Logger:  logger,
	})
	module.Catalog = catalog
	return module
}
