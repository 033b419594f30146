package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/cache"
	"gitlab.com/timkado/api/wa-automations/internal/channel"
	"gitlab.com/timkado/api/wa-automations/internal/config"
	"gitlab.com/timkado/api/wa-automations/internal/jetstream"
	"gitlab.com/timkado/api/wa-automations/internal/storage"
	"gitlab.com/timkado/api/wa-automations/internal/usecase"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// App holds the wired engine, its jobs and the resources they own
type App struct {
	Repo      storage.Repository
	Lookups   *cache.LookupCache
	Publisher jetstream.OutcomePublisher
	Engine    *usecase.Engine
	Reminders *usecase.ReminderJob
	Marketing *usecase.MarketingJob
}

// New connects storage and the optional event stream and builds both jobs.
// A missing provider URL is not an error here; runs report it instead.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	pg, err := storage.NewPostgresRepo(cfg.Database.PostgresDSN, cfg.Database.PostgresAutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}
	repo := storage.NewRepository(pg)

	lookups := cache.NewLookupCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	repos := usecase.ReposFrom(repo)
	repos.Units = cache.NewCachedUnitRepo(repos.Units, lookups)
	repos.Catalog = cache.NewCachedCatalogRepo(repos.Catalog, lookups)

	publisher, err := jetstream.NewOutcomePublisher(logger.WithLogger(ctx, log), cfg.NATS)
	if err != nil {
		log.Warn("Outcome events disabled, NATS unavailable", zap.Error(err))
		publisher = jetstream.NoopPublisher{}
	}

	engine, err := usecase.NewEngine(cfg.Automation, repos, newSender(cfg.Evolution, log), log,
		usecase.WithPublisher(publisher))
	if err != nil {
		publisher.Close()
		_ = repo.Close(ctx)
		return nil, err
	}

	return &App{
		Repo:      repo,
		Lookups:   lookups,
		Publisher: publisher,
		Engine:    engine,
		Reminders: usecase.NewReminderJob(engine),
		Marketing: usecase.NewMarketingJob(engine),
	}, nil
}

// Close releases the engine, the event stream and the database
func (a *App) Close(ctx context.Context) error {
	a.Engine.Close()
	a.Publisher.Close()
	return a.Repo.Close(ctx)
}

func newSender(cfg config.EvolutionConfig, log *zap.Logger) channel.Sender {
	sender, err := channel.NewEvolutionSender(cfg.APIURL, cfg.Timeout)
	if err != nil {
		log.Warn("Evolution sender not configured, runs will fail until EVOLUTION_API_URL is set", zap.Error(err))
		return nil
	}
	return sender
}
