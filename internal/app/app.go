package app

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"MissionReady/internal/config"
	"MissionReady/internal/extract"
	"MissionReady/internal/infrastructure/artifact"
	"MissionReady/internal/infrastructure/discovery"
	"MissionReady/internal/infrastructure/llm"
	"MissionReady/internal/infrastructure/ml"
	"MissionReady/internal/infrastructure/pdfform"
	"MissionReady/internal/infrastructure/pptx"
	"MissionReady/internal/infrastructure/scheduler"
	"MissionReady/internal/infrastructure/storage"
	"MissionReady/internal/infrastructure/telegram"
	"MissionReady/internal/logging"
	"MissionReady/internal/ports"
	"MissionReady/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	db       *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	vocab := pptx.NewVocabulary(cfg.Sections)
	norm := pdfform.NewNormalizer(cfg.Severities, cfg.DateFormats)

	registry := extract.NewRegistry()
	registry.Register(pptx.NewSlideExtractor(vocab, baseLogger.With("component", "extractor.conop")))
	registry.Register(pdfform.NewFormExtractor(norm, baseLogger.With("component", "extractor.draw")))

	source := discovery.NewDirectorySource(cfg.Batch.BaseDirs, baseLogger.With("component", "discovery"))
	artifacts := artifact.NewJSONStore(cfg.Batch.OutputDir, cfg.Batch.SkipReportPath)

	var (
		db         *sql.DB
		repository ports.PairRepository
	)
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			baseLogger.Warn("postgres unavailable, continuing without upload", "error", err)
		} else {
			db = opened
			repository = storage.NewPostgresRepository(db)
		}
	}

	var embedder ports.Embedder
	if cfg.Embedding.InferenceURL != "" {
		embedder = ml.NewClient(cfg.Embedding.InferenceURL, cfg.Embedding.APIKey)
	}

	var synthesizer ports.DrawSynthesizer
	if cfg.Ollama.APIKey != "" {
		synthesizer = llm.NewOllamaClient(cfg.Ollama)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Registry:    registry,
		Artifacts:   artifacts,
		Repository:  repository,
		Embedder:    embedder,
		Synthesizer: synthesizer,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
		Workers:     cfg.Batch.Workers,
		FileTimeout: cfg.Batch.FileTimeout(),
	})

	return &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, db: db}
}

// Run executes one batch, or keeps re-running on the configured interval.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if interval := a.cfg.Scheduler.Interval(); interval > 0 {
		driver := scheduler.NewIntervalScheduler(interval)
		recurring := usecase.NewScheduler(driver, a.pipeline)
		if err := recurring.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return recurring.Stop(context.Background())
	}

	return a.pipeline.ProcessBatch(ctx, time.Now())
}

// Close releases long-lived resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
