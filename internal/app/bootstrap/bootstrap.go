package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	leaderboardservice "contracthub/contexts/community/leaderboard-service"
	jobservice "contracthub/contexts/progression/job-service"
	jobids "contracthub/contexts/progression/job-service/adapters/ids"
	jobmemory "contracthub/contexts/progression/job-service/adapters/memory"
	jobpostgres "contracthub/contexts/progression/job-service/adapters/postgres"
	jobapp "contracthub/contexts/progression/job-service/application"
	jobworkers "contracthub/contexts/progression/job-service/application/workers"
	jobports "contracthub/contexts/progression/job-service/ports"
	rewardengine "contracthub/contexts/rewards/reward-engine"
	rewardmemory "contracthub/contexts/rewards/reward-engine/adapters/memory"
	rewardpostgres "contracthub/contexts/rewards/reward-engine/adapters/postgres"
	"contracthub/contexts/rewards/reward-engine/adapters/random"
	rewardports "contracthub/contexts/rewards/reward-engine/ports"
	"contracthub/internal/app/integration"
	"contracthub/internal/platform/config"
	"contracthub/internal/platform/db"
	"contracthub/internal/platform/httpserver"
	"contracthub/internal/platform/messaging"
	"contracthub/internal/platform/observability"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type shutdownFunc func(context.Context) error

type APIApp struct {
	server    *httpserver.Server
	postgres  *db.Postgres
	shutdowns []shutdownFunc
	logger    *slog.Logger
}

type WorkerApp struct {
	postgres    *db.Postgres
	redis       *redis.Client
	shutdowns   []shutdownFunc
	outboxRelay jobworkers.OutboxRelay
	completions jobworkers.CompletionFeed
	schedule    string
	logger      *slog.Logger
}

// Modules is the wired set of contexts behind the HTTP server.
type Modules struct {
	Jobs        jobservice.Module
	Rewards     rewardengine.Module
	Leaderboard leaderboardservice.Module
}

// BuildModules wires the three contexts over a shared job store. Rewards
// reach the job service only through the integration bridge.
func BuildModules(store jobservice.Store, catalog rewardports.EventCatalog, cfg config.Config, logger *slog.Logger) Modules {
	var rng rewardports.RandomSource
	if cfg.RNGSeed != 0 {
		rng = random.NewSource(cfg.RNGSeed)
	}
	clock := jobpostgres.SystemClock{}

	approvalMetrics, err := jobapp.NewApprovalMetrics(otel.Meter("progression/job-service"))
	if err != nil {
		logger.Warn("approval metrics unavailable",
			"event", "bootstrap_approval_metrics_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}

	rewards := rewardengine.NewModule(rewardengine.Dependencies{
		Catalog: catalog,
		Random:  rng,
		Clock:   clock,
		Logger:  logger,
	})
	jobs := jobservice.NewModule(jobservice.Dependencies{
		Store:   store,
		Rewards: integration.RewardSettler{Service: rewards.Service},
		Clock:   clock,
		IDGen:   jobids.UUIDGenerator{},
		Retry: jobapp.RetryPolicy{
			Attempts: cfg.StoreRetryAttempts,
			Backoff:  cfg.StoreRetryBackoff,
		},
		Metrics: approvalMetrics,
		Logger:  logger,
	})
	source := integration.LeaderboardSource{Profiles: store, Jobs: store}
	leaderboard := leaderboardservice.NewModule(leaderboardservice.Dependencies{
		Snapshots: source,
		Viewers:   source,
		Logger:    logger,
	})
	return Modules{Jobs: jobs, Rewards: rewards, Leaderboard: leaderboard}
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName+"-api", cfg.OTELEndpoint)
	if err != nil {
		return nil, err
	}
	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, err
	}
	shutdowns := []shutdownFunc{shutdownMetrics, shutdownTracer}

	var (
		pg      *db.Postgres
		store   jobservice.Store
		catalog rewardports.EventCatalog
	)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		seed, err := jobmemory.LoadSeedFile(cfg.CatalogSeedFile)
		if err != nil {
			runShutdowns(shutdowns)
			return nil, err
		}
		events, err := rewardmemory.LoadEventsFile(cfg.CatalogSeedFile)
		if err != nil {
			runShutdowns(shutdowns)
			return nil, err
		}
		store = jobmemory.NewStore(seed)
		catalog = rewardmemory.NewCatalog(events)
		logger.Warn("running on in-memory store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"seed_file", cfg.CatalogSeedFile,
			"contracts", len(seed.Contracts),
			"events", len(events),
		)
	} else {
		pg, err = db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			runShutdowns(shutdowns)
			return nil, err
		}
		store = jobpostgres.NewRepository(pg.DB, logger)
		catalog = rewardpostgres.NewCatalog(pg.DB)
	}

	modules := BuildModules(store, catalog, cfg, logger)
	server := httpserver.New(modules.Jobs, modules.Rewards, modules.Leaderboard, logger, normalizeAddr(cfg.HTTPPort))
	server.HandleMetrics(cfg.MetricsPath, metricsHandler)
	return &APIApp{
		server:    server,
		postgres:  pg,
		shutdowns: shutdowns,
		logger:    logger,
	}, nil
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if _, err := cron.ParseStandard(cfg.OutboxRelaySchedule); err != nil {
		return nil, fmt.Errorf("OUTBOX_RELAY_SCHEDULE: %w", err)
	}

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName+"-worker", cfg.OTELEndpoint)
	if err != nil {
		return nil, err
	}
	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, err
	}

	var (
		rdb *redis.Client
		bus interface {
			jobports.EventPublisher
			jobports.EventSubscriber
		}
	)
	if strings.TrimSpace(cfg.RedisURL) == "" {
		logger.Warn("REDIS_URL not set, publishing to in-process bus",
			"event", "bootstrap_inprocess_bus",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		bus = messaging.NewInProcessBus(logger, messaging.WithBufferSize(cfg.BusBufferSize))
	} else {
		rdb, err = messaging.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = pg.Close()
			_ = shutdownTracer(ctx)
			return nil, err
		}
		bus = messaging.NewRedisBus(rdb, cfg.ServiceName, logger)
	}

	repo := jobpostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres:  pg,
		redis:     rdb,
		shutdowns: []shutdownFunc{shutdownTracer},
		outboxRelay: jobworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: bus,
			Clock:     jobpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		completions: jobworkers.CompletionFeed{
			Subscriber: bus,
			Logger:     logger,
		},
		schedule: cfg.OutboxRelaySchedule,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	errs := []error{runShutdowns(a.shutdowns)}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	return errors.Join(errs...)
}

// Run drives the outbox relay on the cron schedule until ctx is cancelled.
// Overlapping ticks are skipped, never queued.
func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.completions.Start(ctx); err != nil {
		return err
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(w.schedule, func() {
		if err := w.outboxRelay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("outbox relay run failed",
				"event", "bootstrap_outbox_relay_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"schedule", w.schedule,
	)
	scheduler.Start()
	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func (w *WorkerApp) Close() error {
	errs := []error{runShutdowns(w.shutdowns)}
	if w.redis != nil {
		errs = append(errs, w.redis.Close())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

// runShutdowns flushes telemetry providers within a bounded window.
func runShutdowns(shutdowns []shutdownFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	for _, shutdown := range shutdowns {
		errs = append(errs, shutdown(ctx))
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
