package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/callportrait/backend/internal/api/handlers"
	"github.com/callportrait/backend/internal/cache/redis"
	"github.com/callportrait/backend/internal/etl"
	"github.com/callportrait/backend/internal/llm"
	"github.com/callportrait/backend/internal/metrics"
	"github.com/callportrait/backend/internal/middleware/ratelimit"
	"github.com/callportrait/backend/internal/middleware/security"
	"github.com/callportrait/backend/internal/middleware/validation"
	"github.com/callportrait/backend/internal/period"
	"github.com/callportrait/backend/internal/portrait"
	"github.com/callportrait/backend/internal/scheduler"
	"github.com/callportrait/backend/internal/storage/source"
	"github.com/callportrait/backend/internal/storage/store"
	"github.com/callportrait/backend/pkg/config"
	appLogger "github.com/callportrait/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Call Portrait API Server")

	metrics.Init()

	storeClient, err := store.NewClient(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		appLogger.Fatal("Failed to create storage client", zap.Error(err))
	}
	defer storeClient.Close()

	err = storeClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var sourceClient *source.Client
	if cfg.Source.DSN != "" {
		sourceClient, err = source.NewClient(cfg.Source.DSN)
		if err != nil {
			appLogger.Fatal("Failed to connect to source database", zap.Error(err))
		}
		defer sourceClient.Close()
	} else {
		appLogger.Warn("Source database not configured, sync disabled")
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer cacheClient.Close()
	}

	var analyzer *llm.Analyzer
	if cfg.LLM.Enabled {
		llmClient := llm.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.BaseURL,
			cfg.LLM.Model,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
			time.Duration(cfg.LLM.TimeoutSec)*time.Second,
		)
		analyzer = llm.NewAnalyzer(llmClient, storeClient, cfg.LLM.MaxConcurrent)
	}

	// A nil *source.Client must stay a nil interface inside the syncer.
	var syncer *etl.Syncer
	if sourceClient != nil {
		syncer = etl.NewSyncer(sourceClient, storeClient, cfg.Compute.BatchSize)
	} else {
		syncer = etl.NewSyncer(nil, storeClient, cfg.Compute.BatchSize)
	}
	aggregator := portrait.NewAggregator(storeClient, cfg.Compute.BatchSize)
	tracker := period.NewTracker(storeClient, aggregator)
	service := portrait.NewService(storeClient, cacheClient)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, syncer, analyzer, tracker)
		if err := sched.Start(); err != nil {
			appLogger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RateLimit,
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Storage.Driver == store.DriverSQLite,
	}))
	app.Use(rateLimiter.Middleware())
	app.Use(metrics.HTTPMiddleware())

	portraitHandler := handlers.NewPortraitHandler(service)
	periodHandler := handlers.NewPeriodHandler(storeClient)
	taskHandler := handlers.NewTaskHandler(service)
	adminHandler := handlers.NewAdminHandler(syncer, analyzer, tracker, aggregator, service, storeClient)

	api := app.Group("/api/v1", validation.Middleware())

	api.Get("/portrait/customer", portraitHandler.GetCustomerPortrait)
	api.Get("/portrait/history", portraitHandler.GetCustomerHistory)
	api.Get("/portrait/summary", portraitHandler.GetPeriodSummary)
	api.Get("/portrait/trend", portraitHandler.GetTrend)

	api.Get("/periods", periodHandler.ListPeriods)
	api.Get("/periods/current", periodHandler.GetCurrentPeriods)

	api.Get("/tasks/:task_id/summary", taskHandler.GetTaskSummary)
	api.Get("/tasks/:task_id/trend", taskHandler.GetTaskTrend)

	admin := api.Group("/admin")
	admin.Post("/sync", adminHandler.TriggerSync)
	admin.Post("/analyze", adminHandler.TriggerAnalyze)
	admin.Post("/compute", adminHandler.TriggerCompute)
	admin.Post("/task-summary", adminHandler.TriggerTaskSummary)
	admin.Get("/periods/status", adminHandler.GetPeriodStatus)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		if err := storeClient.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
