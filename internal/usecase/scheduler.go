package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PriceTracker/internal/logging"
	"PriceTracker/internal/ports"
)

// Scheduler wires the cron driver with the ingestion pipeline: one backfill when the store is
// empty, then a poll on every tick.
type Scheduler struct {
	driver     ports.Scheduler
	pipeline   *Pipeline
	repository ports.ArticleRepository
	term       string
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, repo ports.ArticleRepository, term string, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, repository: repo, term: term, logger: log}
}

// BackfillIfEmpty runs a backfill only when no article has been stored yet.
func (s *Scheduler) BackfillIfEmpty(ctx context.Context) (bool, error) {
	n, err := s.repository.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count articles: %w", err)
	}
	if n > 0 {
		s.logger.Info("store not empty, skipping backfill", "articles", n)
		return false, nil
	}

	if _, err := s.pipeline.RunBackfill(ctx, s.term); err != nil {
		return true, fmt.Errorf("backfill: %w", err)
	}
	return true, nil
}

// Start launches the startup backfill in the background and registers the poll job.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	go func() {
		if _, err := s.BackfillIfEmpty(ctx); err != nil {
			s.logger.Error("startup backfill failed", "error", err)
		}
	}()

	job := func(trigger time.Time) {
		s.logger.Debug("poll triggered", "at", trigger.Format(time.RFC3339))
		if _, err := s.pipeline.RunPoll(ctx, s.term); err != nil {
			s.logger.Error("poll run failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
