package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/umerkhan-dev/weather-etl/internal/api/http"
	"github.com/umerkhan-dev/weather-etl/internal/config"
	"github.com/umerkhan-dev/weather-etl/internal/persist"
	"github.com/umerkhan-dev/weather-etl/internal/pipeline"
	"github.com/umerkhan-dev/weather-etl/internal/scheduler"
	"github.com/umerkhan-dev/weather-etl/internal/store"
	"github.com/umerkhan-dev/weather-etl/internal/upload"
	"github.com/umerkhan-dev/weather-etl/internal/weather"
	"github.com/umerkhan-dev/weather-etl/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New("weather-etl")

	// Shared HTTP client for outbound fetch calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := weather.NewClient(httpClient, cfg.City, cfg.OpenWeatherAPIKey,
		weather.WithLogger(logger.New("fetcher")))
	writer := persist.NewWriter(cfg.OutputDir)

	// Upload is optional: a missing credential file disables the stage
	// instead of failing the daemon.
	var uploader pipeline.Uploader
	credFile, err := upload.ResolveCredentials(cfg.DriveCredentialsFile, cfg.DriveCredentialsAltFile)
	if err != nil {
		appLog.Printf("upload disabled: %v", err)
	} else {
		drv, err := upload.NewDriveUploader(context.Background(), credFile, cfg.DriveFolderID, logger.New("uploader"))
		if err != nil {
			appLog.Printf("upload disabled: %v", err)
		} else {
			uploader = drv
		}
	}

	// Run history with configured retention, exposed over the ops API.
	history := store.NewRunHistory(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	pipe := pipeline.New(pipeline.Deps{
		Fetcher:   fetcher,
		Persister: writer,
		Uploader:  uploader,
		Recorder:  history,
		Logger:    logger.New("pipeline"),
	}, pipeline.Options{
		City:          cfg.City,
		IntervalLabel: cfg.ScheduledIntervalLabel(),
		OnEmpty:       pipeline.FallbackSample,
		Formats:       []persist.Format{persist.FormatText, persist.FormatCSV},
		UploadFormat:  persist.FormatCSV,
	})

	sched := scheduler.New(pipe, cfg.FetchInterval, logger.New("scheduler"))
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-etl",
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
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-etl",
		})
	})

	// Ops API routes.
	httpapi.RegisterRoutes(app, history)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Printf("error during shutdown: %v", err)
	}
}
