package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocmoney/pipeline/adapters/event"
	"github.com/vocmoney/pipeline/adapters/feed"
	"github.com/vocmoney/pipeline/adapters/media_storage"
	"github.com/vocmoney/pipeline/adapters/persistence"
	"github.com/vocmoney/pipeline/adapters/rewrite"
	"github.com/vocmoney/pipeline/adapters/wordpress"
	"github.com/vocmoney/pipeline/internal/application/service"
	"github.com/vocmoney/pipeline/internal/application/usecase/publish"
	"github.com/vocmoney/pipeline/internal/config"
	"github.com/vocmoney/pipeline/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect to Postgres", err)
	}
	defer dbPool.Close()
	articleRepo := persistence.NewPostgresArticleRepo(dbPool)

	// Seen cache (optional)
	var seen service.SeenCache
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect to Redis", err)
		}
		defer redisClient.Close()
		seen = persistence.NewRedisSeenCache(redisClient, cfg.Schedule.CleanupAfter, appLogger)
	}

	// Event producer (optional)
	var events *event.KafkaProducerClient
	if len(cfg.Kafka.Brokers) > 0 {
		events, err = event.NewKafkaProducerClient(cfg)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer events.Close()
	}

	// WordPress client; a missing base URL is fatal here, not retried.
	wpClient, err := wordpress.New(ctx, wordpress.Config{
		URL:      cfg.WordPress.URL,
		User:     cfg.WordPress.User,
		Password: cfg.WordPress.Password,
	}, cfg.WordPress.Categories, appLogger)
	if err != nil {
		appLogger.Fatal("cannot build WordPress client", err)
	}

	rewriter, err := rewrite.NewOpenAIRewriter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot init rewrite adapter", err)
	}

	var rehoster service.ImageRehoster
	if cfg.Pipeline.ImagesMode == publish.ImagesModeCloudinary {
		rehoster, err = media_storage.NewCloudinaryAdapter(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Cloudinary", err)
		}
	}

	fetcher := feed.NewFetcher(appLogger)

	publishUC := publish.NewPublishArticleUseCase(
		articleRepo, seen, rewriter, wpClient, rehoster, events,
		cfg.Pipeline.ImagesMode, appLogger,
	)
	runUC := publish.NewRunPipelineUseCase(fetcher, publishUC, articleRepo, cfg, appLogger)

	appLogger.Info("pipeline started")

	// Run one pass immediately, then on the configured interval.
	if err := runUC.Execute(ctx); err != nil && ctx.Err() == nil {
		appLogger.Error("pipeline pass failed", err)
	}

	ticker := time.NewTicker(cfg.Schedule.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := runUC.Execute(ctx); err != nil && ctx.Err() == nil {
				appLogger.Error("pipeline pass failed", err)
			}
		case <-ctx.Done():
			appLogger.Info("pipeline stopped")
			os.Exit(0)
		}
	}
}
