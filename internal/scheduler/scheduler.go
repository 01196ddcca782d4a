package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/umerkhan-dev/weather-etl/internal/pipeline"
)

// Runner is the scheduled entry point into the pipeline.
type Runner interface {
	RunScheduled(ctx context.Context) (pipeline.RunReport, error)
}

// Scheduler periodically triggers a full pipeline run.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	log       *log.Logger
}

// New creates a new Scheduler.
func New(runner Runner, interval time.Duration, l *log.Logger) *Scheduler {
	if l == nil {
		l = log.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		log:       l,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	hours := int(s.interval.Hours())
	if hours <= 0 {
		hours = 8
	}

	_, err := s.scheduler.Every(hours).Hours().Do(func() {
		s.log.Printf("running scheduled collection")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		report, err := s.runner.RunScheduled(ctx)
		if err != nil {
			s.log.Printf("scheduled run failed: %v", err)
			return
		}
		s.log.Printf("scheduled run %s finished: status=%s points=%d", report.ID, report.Status, report.DataPoints)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
