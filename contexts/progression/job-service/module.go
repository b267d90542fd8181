package jobservice

import (
	"log/slog"

	httpadapter "contracthub/contexts/progression/job-service/adapters/http"
	"contracthub/contexts/progression/job-service/adapters/memory"
	application "contracthub/contexts/progression/job-service/application"
	"contracthub/contexts/progression/job-service/application/commands"
	"contracthub/contexts/progression/job-service/application/queries"
	"contracthub/contexts/progression/job-service/ports"

	"github.com/go-playground/validator/v10"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Store is the full set of job-service persistence ports. Both the memory
// store and the postgres repository satisfy it.
type Store interface {
	ports.JobRepository
	ports.ProfileRepository
	ports.ClaimRepository
	ports.SettlementRepository
	ports.ContractCatalog
}

type Dependencies struct {
	Store   Store
	Rewards ports.RewardSettler
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Retry   application.RetryPolicy
	Metrics *application.ApprovalMetrics
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	startJob := commands.StartJobUseCase{
		Jobs:    deps.Store,
		Catalog: deps.Store,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Retry:   deps.Retry,
		Logger:  deps.Logger,
	}
	submitStage := commands.SubmitStageUseCase{
		Jobs:   deps.Store,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Retry:  deps.Retry,
		Logger: deps.Logger,
	}
	reviewStage := commands.ReviewStageUseCase{
		Jobs:        deps.Store,
		Profiles:    deps.Store,
		Claims:      deps.Store,
		Settlements: deps.Store,
		Rewards:     deps.Rewards,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Retry:       deps.Retry,
		Metrics:     deps.Metrics,
		Logger:      deps.Logger,
	}
	registerProfile := commands.RegisterProfileUseCase{
		Profiles: deps.Store,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	queryUseCase := queries.QueryUseCase{
		Jobs:        deps.Store,
		Profiles:    deps.Store,
		Settlements: deps.Store,
		Logger:      deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			StartJob:        startJob,
			SubmitStage:     submitStage,
			ReviewStage:     reviewStage,
			RegisterProfile: registerProfile,
			Queries:         queryUseCase,
			Validate:        validator.New(),
			Logger:          deps.Logger,
		},
	}
}

func NewInMemoryModule(seed memory.Seed, rewards ports.RewardSettler, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Store:   store,
		Rewards: rewards,
		Clock:   store,
		IDGen:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
