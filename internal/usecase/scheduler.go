package usecase

import (
	"context"
	"errors"
	"log/slog"

	"YourStockNews/internal/api"
	"YourStockNews/internal/ports"
)

// Scheduler wires the interval driver with the alert pipeline.
type Scheduler struct {
	driver     ports.Scheduler
	pipeline   *AlertPipeline
	watchlists []int64
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. An empty
// watchlists slice means every watchlist of the caller.
func NewScheduler(driver ports.Scheduler, pipeline *AlertPipeline, watchlists []int64, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{driver: driver, pipeline: pipeline, watchlists: watchlists, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(ctx context.Context) {
		reports, err := s.pipeline.RunAll(ctx, s.watchlists)
		delivered := 0
		for _, r := range reports {
			delivered += len(r.Delivered)
		}
		if errors.Is(err, api.ErrUnauthorized) {
			s.logger.Error("session expired, log in again to resume alerts")
			return
		}
		if err != nil {
			s.logger.Error("alert run failed", "error", err, "watchlists", len(reports), "delivered", delivered)
			return
		}
		s.logger.Info("alert run finished", "watchlists", len(reports), "delivered", delivered)
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
