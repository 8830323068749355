package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"AutoPublisher/internal/autopilot"
	"AutoPublisher/internal/config"
	"AutoPublisher/internal/infrastructure/docstore"
	"AutoPublisher/internal/infrastructure/feeds"
	"AutoPublisher/internal/infrastructure/license"
	"AutoPublisher/internal/infrastructure/llm"
	"AutoPublisher/internal/infrastructure/media"
	"AutoPublisher/internal/infrastructure/scheduler"
	"AutoPublisher/internal/infrastructure/storage"
	"AutoPublisher/internal/links"
	"AutoPublisher/internal/logging"
	"AutoPublisher/internal/modules"
	"AutoPublisher/internal/ports"
	"AutoPublisher/internal/sections"
	"AutoPublisher/internal/usecase"
)

// Application wires configuration to the orchestrator, the autopilot poller,
// and the schedule that drives them.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	db           *sql.DB
	orchestrator *usecase.Orchestrator
	poller       *autopilot.Poller
	scheduler    ports.Scheduler
}

// New builds the full object graph from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := storage.NewPostgresRepository(db)

	var chatClient ports.ChatClient
	if cfg.Chat.APIKey != "" {
		chatClient = llm.NewClient(cfg.Chat, cfg.ChatBackend)
	}

	sectionCfg := sections.Config{
		KeepTitles:      cfg.Sections.KeepTitles,
		BlacklistTitles: cfg.Sections.BlacklistTitles,
		MaxDepth:        cfg.Sections.MaxDepth,
	}

	newsSearch := feeds.NewNewsSearch(cfg.Search.Endpoint, cfg.Search.APIKey)

	registry := modules.NewRegistry()
	registry.Register(modules.NewTextModule(chatClient, sectionCfg))
	registry.Register(modules.NewSocialModule(chatClient))
	registry.Register(modules.NewImageModule(media.NewClient(cfg.Media.Endpoint, cfg.Media.APIKey)))
	registry.Register(modules.NewVideoModule(newsSearch))

	store := docstore.NewRestStore(cfg.DocStore.BaseURL, cfg.DocStore.APIKey)

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Repository:    repo,
		Registry:      registry,
		Store:         store,
		Entitlement:   license.FromConfig(cfg.License),
		Rules:         repo,
		AutoLinks:     autoLinkConfig(cfg.AutoLinks),
		RunBudget:     cfg.Scheduler.RunBudget(),
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
		Logger:        baseLogger.With("component", "orchestrator"),
	})

	poller := autopilot.NewPoller(repo, feeds.NewRSSSource(), newsSearch, chatClient,
		baseLogger.With("component", "autopilot"))

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		db:           db,
		orchestrator: orchestrator,
		poller:       poller,
		scheduler:    scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Location()),
	}, nil
}

// Run starts the schedule and blocks until the context is cancelled. Each
// tick polls the autopilot feeds first, so freshly due items can be queued
// before the orchestrator scans for work.
func (a *Application) Run(ctx context.Context) error {
	err := a.scheduler.Start(ctx, func(now time.Time) {
		a.poller.PollAll(ctx)
		a.orchestrator.Tick(ctx, now)
	})
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Scheduler.RunBudget())
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		a.logger.Warn("stop scheduler", "error", err)
	}
	return a.db.Close()
}

func autoLinkConfig(cfg config.AutoLinksConfig) *links.AutoConfig {
	if cfg.Total <= 0 {
		return nil
	}
	positions := make([]links.Position, 0, len(cfg.Positions))
	for _, position := range cfg.Positions {
		positions = append(positions, links.Position(position))
	}
	return &links.AutoConfig{Total: cfg.Total, Positions: positions, Template: cfg.Template}
}
