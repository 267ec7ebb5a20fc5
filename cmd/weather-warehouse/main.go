package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/uemoa-meteo/weather-warehouse/internal/api/http"
	"github.com/uemoa-meteo/weather-warehouse/internal/config"
	"github.com/uemoa-meteo/weather-warehouse/internal/etl"
	"github.com/uemoa-meteo/weather-warehouse/internal/extract"
	"github.com/uemoa-meteo/weather-warehouse/internal/observability"
	"github.com/uemoa-meteo/weather-warehouse/internal/scheduler"
	"github.com/uemoa-meteo/weather-warehouse/internal/staging"
	"github.com/uemoa-meteo/weather-warehouse/internal/warehouse"
)

func main() {
	// Load configuration (godotenv is handled inside Load).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	// Staging (intermediate) and warehouse stores; schemas bootstrap on open.
	stagingStore, err := staging.Open(ctx, cfg.StagingDriver, cfg.StagingDSN)
	if err != nil {
		zlog.Fatal("failed to open staging store", zap.Error(err))
	}
	defer func() { _ = stagingStore.Close() }()

	warehouseStore, err := warehouse.Open(ctx, cfg.WarehouseDriver, cfg.WarehouseDSN)
	if err != nil {
		zlog.Fatal("failed to open warehouse store", zap.Error(err))
	}
	defer func() { _ = warehouseStore.Close() }()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	fetcher := extract.NewClient(httpClient, cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.HistoryDays, zlog)

	// The transfer orchestrator and the outer pipeline.
	orchestrator := etl.NewOrchestrator(stagingStore, warehouseStore, stagingStore, zlog)
	pipeline := etl.NewPipeline(etl.PipelineConfig{
		Cities:            cfg.Cities,
		ResetStagingOnRun: cfg.ResetStagingOnRun,
	}, fetcher, stagingStore, orchestrator, stagingStore, zlog)

	// Scheduler that periodically runs the pipeline.
	sched := scheduler.New(cfg.FetchInterval, pipeline, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-warehouse",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-warehouse",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, warehouseStore, pipeline, stagingStore, zlog)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}
