package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/vocmoney/pipeline/adapters/event"
	"github.com/vocmoney/pipeline/adapters/feed"
	httpAdapter "github.com/vocmoney/pipeline/adapters/http"
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
	ctx := context.Background()

	dbPool, err := persistence.NewPostgresPool(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect to Postgres", err)
	}
	defer dbPool.Close()
	articleRepo := persistence.NewPostgresArticleRepo(dbPool)

	var seen service.SeenCache
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect to Redis", err)
		}
		defer redisClient.Close()
		seen = persistence.NewRedisSeenCache(redisClient, cfg.Schedule.CleanupAfter, appLogger)
	}

	var events *event.KafkaProducerClient
	if len(cfg.Kafka.Brokers) > 0 {
		events, err = event.NewKafkaProducerClient(cfg)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer events.Close()
	}

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

	opsHandler := httpAdapter.NewOpsHandler(runUC, articleRepo, wpClient, cfg.Pipeline.PublisherName, appLogger)
	authMiddleware := httpAdapter.TokenAuthMiddleware(cfg.App.OpsToken, appLogger)
	errorMiddleware := httpAdapter.ErrorMiddleware(appLogger)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), errorMiddleware)

	router.GET("/health", opsHandler.Health)
	router.GET("/feed.xml", opsHandler.FeedXML)

	ops := router.Group("/ops")
	ops.Use(authMiddleware)
	{
		ops.GET("/stats", opsHandler.Stats)
		ops.POST("/run", opsHandler.Run)
		ops.POST("/probe", opsHandler.Probe)
	}

	appLogger.Info("ops server running on port " + cfg.App.Port)
	if err := router.Run(":" + cfg.App.Port); err != nil {
		appLogger.Fatal("cannot run server", err)
	}
}
