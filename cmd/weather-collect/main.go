// weather-collect performs one standalone collection run: a bounded loop
// of forecast fetches, normalization, a JSON artifact on disk, and an
// upload attempt. The process exits 0 on any completed run, including
// runs whose upload failed, and 1 only on a fatal error.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/umerkhan-dev/weather-etl/internal/config"
	"github.com/umerkhan-dev/weather-etl/internal/persist"
	"github.com/umerkhan-dev/weather-etl/internal/pipeline"
	"github.com/umerkhan-dev/weather-etl/internal/upload"
	"github.com/umerkhan-dev/weather-etl/internal/weather"
	"github.com/umerkhan-dev/weather-etl/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	appLog := logger.New("weather-collect")

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := weather.NewClient(httpClient, cfg.City, cfg.OpenWeatherAPIKey,
		weather.WithLogger(logger.New("fetcher")))
	writer := persist.NewWriter(cfg.OutputDir)

	ctx := context.Background()

	var uploader pipeline.Uploader
	credFile, err := upload.ResolveCredentials(cfg.DriveCredentialsFile, cfg.DriveCredentialsAltFile)
	if err != nil {
		appLog.Printf("upload disabled: %v", err)
	} else {
		drv, err := upload.NewDriveUploader(ctx, credFile, cfg.DriveFolderID, logger.New("uploader"))
		if err != nil {
			appLog.Printf("upload disabled: %v", err)
		} else {
			uploader = drv
		}
	}

	pipe := pipeline.New(pipeline.Deps{
		Fetcher:   fetcher,
		Persister: writer,
		Uploader:  uploader,
		Logger:    logger.New("pipeline"),
	}, pipeline.Options{
		City:           cfg.City,
		IntervalLabel:  cfg.StandaloneIntervalLabel(),
		OnEmpty:        pipeline.Abort,
		Formats:        []persist.Format{persist.FormatJSON},
		UploadFormat:   persist.FormatJSON,
		SeriesCount:    cfg.SeriesCount(),
		SeriesInterval: cfg.SeriesInterval(),
	})

	appLog.Printf("starting collection for %s: %d lookups at %s spacing",
		cfg.City, cfg.SeriesCount(), cfg.SeriesInterval())

	report, err := pipe.RunStandalone(ctx)
	if err != nil {
		appLog.Printf("collection failed: %v", err)
		return 1
	}

	switch {
	case report.Status == pipeline.StatusAborted:
		appLog.Printf("no data to save; collection aborted")
	case report.UploadError != "":
		appLog.Printf("collection complete with %d data points; upload failed: %s",
			report.DataPoints, report.UploadError)
	default:
		appLog.Printf("collection complete with %d data points; remote file id: %s",
			report.DataPoints, report.RemoteID)
	}
	return 0
}
