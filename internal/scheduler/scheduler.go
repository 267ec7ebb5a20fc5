package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/uemoa-meteo/weather-warehouse/internal/etl"
)

// Runner is the pipeline contract the scheduler triggers.
type Runner interface {
	Run(ctx context.Context) (*etl.RunReport, error)
}

// Scheduler periodically triggers an ETL run.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, runner Runner, log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		// Config rejects sub-minute intervals; guard direct construction too.
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.log.Info("scheduler: triggering etl run")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()

		report, err := s.runner.Run(ctx)
		switch {
		case errors.Is(err, etl.ErrRunActive):
			// The previous run is still going; skip this tick.
			s.log.Warn("scheduler: previous etl run still active, skipping")
		case err != nil:
			s.log.Error("scheduler: etl run failed", zap.Error(err))
		default:
			s.log.Info("scheduler: etl run completed",
				zap.String("run_id", report.RunID),
				zap.Int("facts_written", report.FactsWritten),
				zap.Int("rows_rejected", report.Rejections.Total()))
		}
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
