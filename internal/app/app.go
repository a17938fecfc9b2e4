package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"PriceTracker/internal/config"
	"PriceTracker/internal/domain"
	"PriceTracker/internal/httpapi"
	"PriceTracker/internal/infrastructure/cache"
	"PriceTracker/internal/infrastructure/llm"
	"PriceTracker/internal/infrastructure/parser"
	"PriceTracker/internal/infrastructure/scheduler"
	"PriceTracker/internal/infrastructure/storage"
	"PriceTracker/internal/infrastructure/telegram"
	"PriceTracker/internal/logging"
	"PriceTracker/internal/ports"
	"PriceTracker/internal/usecase"
	"PriceTracker/pkg/logger"
)

const stopTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db    *sql.DB
	redis *redis.Client

	source   ports.NewsSource
	model    ports.LanguageModel
	articles *storage.ArticleRepository
	upvotes  *storage.UpvoteRepository
	users    *storage.UserRepository
	pipeline *usecase.Pipeline
}

// New opens the database, applies migrations and builds the ingestion pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db

	version, dirty, err := storage.RunMigrations(db, libLogger("migrate", baseLogger))
	if err != nil {
		a.Close()
		return nil, err
	}
	baseLogger.Info("database ready", "schema_version", version, "dirty", dirty)

	a.articles = storage.NewArticleRepository(db)
	a.upvotes = storage.NewUpvoteRepository(db)
	a.users = storage.NewUserRepository(db)

	registry, err := parser.NewStrategyRegistry(cfg.Sites, nil, baseLogger.With("component", "source"))
	if err != nil {
		a.Close()
		return nil, err
	}
	site, ok := cfg.Site(cfg.Scheduler.Site)
	if !ok {
		a.Close()
		return nil, fmt.Errorf("site %q: %w", cfg.Scheduler.Site, domain.ErrSourceNotRegistered)
	}
	source, err := registry.Resolve(site.Name)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.source = source

	model, err := llm.New(cfg.LLM, baseLogger.With("component", "llm"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.model = model

	deps := usecase.PipelineDeps{
		Source:        source,
		Repository:    a.articles,
		Model:         model,
		Logger:        baseLogger.With("component", "pipeline"),
		BackfillPages: domain.PageRange(cfg.Scheduler.BackfillFrom, cfg.Scheduler.BackfillTo),
		PollPages:     domain.SinglePage(cfg.Scheduler.PollPage),
	}

	if cfg.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			baseLogger.Warn("verdict cache disabled", "error", err)
		} else {
			a.redis = client
			deps.Cache = cache.NewVerdictCache(client, cfg.Cache.VerdictTTL)
		}
	}

	if notifier := telegram.NewNotifier(cfg.Notifications.Telegram); notifier.Enabled() {
		deps.Notifier = notifier
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

// Backfill runs one pass over the backfill page range.
func (a *Application) Backfill(ctx context.Context) (domain.RunReport, error) {
	return a.pipeline.RunBackfill(ctx, a.cfg.Scheduler.SearchTerm)
}

// Poll runs one pass over the poll page.
func (a *Application) Poll(ctx context.Context) (domain.RunReport, error) {
	return a.pipeline.RunPoll(ctx, a.cfg.Scheduler.SearchTerm)
}

// Search runs an ad-hoc search without touching the store.
func (a *Application) Search(ctx context.Context, prompt string) ([]domain.SearchResult, error) {
	return a.newSearch().Run(ctx, prompt)
}

func (a *Application) newSearch() *usecase.Search {
	return usecase.NewSearch(a.model, a.source, a.cfg.HTTP.SearchWorkers, a.logger.With("component", "search"))
}

// Serve starts the recurring crawl and the HTTP API, and blocks until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	accounts, err := usecase.NewAccounts(a.users, a.cfg.HTTP.JWTSecret, a.cfg.HTTP.TokenTTL)
	if err != nil {
		return err
	}

	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(), libLogger("cron", a.logger))
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, a.pipeline, a.articles, a.cfg.Scheduler.SearchTerm, a.logger.With("component", "scheduler"))

	server := httpapi.NewServer(a.cfg.HTTP, httpapi.Deps{
		Accounts: accounts,
		News:     usecase.NewNews(a.articles, a.upvotes, a.model, a.logger.With("component", "news")),
		Search:   a.newSearch(),
		Prices:   httpapi.NewPriceProxy(a.cfg.HTTP.PriceEndpoint, a.cfg.LLM.Timeout),
		Logger:   a.logger.With("component", "http"),
	})

	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "next_run", driver.NextRun())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return sched.Stop(stopCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the database and cache connections.
func (a *Application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
}

// Migrate applies (steps == 0) or rolls back migrations without building the pipeline.
func Migrate(ctx context.Context, cfg config.Config, steps int, log *slog.Logger) error {
	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if steps > 0 {
		return storage.MigrateDown(db, steps, libLogger("migrate", log))
	}
	version, dirty, err := storage.RunMigrations(db, libLogger("migrate", log))
	if err != nil {
		return err
	}
	if log != nil {
		log.Info("migrations applied", "schema_version", version, "dirty", dirty)
	}
	return nil
}

// libLogger builds the printf logger cron and migrate expect, verbose when log is at debug level.
func libLogger(component string, log *slog.Logger) *logger.Logger {
	verbose := log != nil && log.Enabled(context.Background(), slog.LevelDebug)
	return logger.New(component).WithVerbose(verbose)
}
