package main

import (
	"ComicForge/internal/api"
	"ComicForge/internal/cleanup"
	"ComicForge/internal/config"
	"ComicForge/internal/job"
	"ComicForge/internal/pipeline"
	"ComicForge/internal/pipeline/storage"
	"ComicForge/pkg/ffmpeg"
	"ComicForge/pkg/plugin"
	"ComicForge/pkg/plugin/border"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}(logger)

	configLoader := config.NewConfigLoader(logger)
	cfg, err := configLoader.Load("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger = buildLogger(cfg, logger)

	// Job store: Postgres when a DSN is configured, in-memory otherwise
	var store job.Store
	if cfg.Database.DSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		store = job.NewPostgresStore(pool)
		logger.Info("Using Postgres job store")
	} else {
		store = job.NewMemoryStore()
		logger.Info("Using in-memory job store")
	}
	jobManager := job.NewManager(store, logger)

	var storageImpl storage.Storage
	if cfg.Storage.Type != "local" {
		var err error
		storageImpl, err = storage.NewStorage(cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to init storage", zap.Error(err))
		}
	}

	var publisher *pipeline.Publisher
	if storageImpl != nil {
		publisher = pipeline.NewPublisher(storageImpl, cfg.Storage.S3.Bucket, cfg.Pipeline.Retry, logger)
	}

	registry := plugin.NewRegistry()
	registry.Register(border.NewBorderPlugin(logger))
	decorators := pipeline.NewDecoratorRunner(registry, cfg.Plugins, logger)

	ff := ffmpeg.NewFFmpeg(cfg.Pipeline.FFMpegPath)
	bubbles := pipeline.NewCompositor(cfg.Bubble)

	factory := func(stylePath string) *pipeline.Generator {
		styleCfg := cfg.Style
		if stylePath != "" {
			styleCfg.ImagePath = stylePath
		}
		sampler := pipeline.NewSampler(ff, cfg.Pipeline, logger)
		transcriber := pipeline.NewTranscriber(ff, pipeline.NewWhisperCLI(cfg.Transcribe), logger)
		engine := pipeline.NewEngine(styleCfg, logger)
		return pipeline.NewGenerator(ff, sampler, transcriber, engine, bubbles, decorators, logger)
	}

	janitor := cleanup.NewJanitor(jobManager, cfg.Cleanup, cfg.Server.UploadDir, cfg.Server.OutputDir, logger)
	janitor.Start()
	defer janitor.Stop()

	server := api.NewServer(factory, publisher, ff, jobManager, cfg, logger)

	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}

// buildLogger rebuilds the logger according to the logging config. The
// bootstrap logger stays in use when the config cannot be applied.
func buildLogger(cfg *config.Config, fallback *zap.Logger) *zap.Logger {
	zapCfg := zap.NewProductionConfig()

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		fallback.Warn("Invalid log level, keeping default", zap.String("level", cfg.Logging.Level))
		return fallback
	}
	zapCfg.Level = level

	if cfg.Logging.Output == "file" && cfg.Logging.FilePath != "" {
		zapCfg.OutputPaths = []string{cfg.Logging.FilePath}
		zapCfg.ErrorOutputPaths = []string{cfg.Logging.FilePath}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		fallback.Warn("Failed to build configured logger", zap.Error(err))
		return fallback
	}
	return logger
}
