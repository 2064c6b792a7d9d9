package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"YourStockNews/internal/domain"
)

const defaultPollInterval = 2 * time.Second

// ScanResult is the outcome of triggering one watchlist.
type ScanResult struct {
	WatchlistID int64
	Job         domain.ScanJob
	Err         error
}

// ScanWatcher triggers scans and follows them until they settle.
type ScanWatcher struct {
	api    NewsAPI
	poll   time.Duration
	logger *slog.Logger
}

// NewScanWatcher polls every poll interval (two seconds when poll <= 0).
func NewScanWatcher(client NewsAPI, poll time.Duration, logger *slog.Logger) *ScanWatcher {
	if poll <= 0 {
		poll = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ScanWatcher{api: client, poll: poll, logger: logger}
}

// Wait polls the job until it reaches success or failed, or ctx ends.
func (w *ScanWatcher) Wait(ctx context.Context, scanID int64) (domain.ScanJob, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return domain.ScanJob{}, fmt.Errorf("wait for scan %d: %w", scanID, ctx.Err())
		case <-timer.C:
		}

		job, err := w.api.GetScanStatus(ctx, scanID)
		if err != nil {
			return domain.ScanJob{}, fmt.Errorf("poll scan %d: %w", scanID, err)
		}
		w.logger.Debug("scan status", "scan_id", scanID, "status", job.Status)
		if job.Status.Terminal() {
			return job, nil
		}
		timer.Reset(w.poll)
	}
}

// TriggerAll starts one scan per watchlist concurrently. Each request is
// independent: a failure is reported in its own result and never cancels
// the others. Results keep the order of ids.
func (w *ScanWatcher) TriggerAll(ctx context.Context, ids []int64) []ScanResult {
	results := make([]ScanResult, len(ids))
	var g errgroup.Group
	g.SetLimit(8)

	for i, id := range ids {
		g.Go(func() error {
			job, err := w.api.TriggerScan(ctx, id)
			results[i] = ScanResult{WatchlistID: id, Job: job, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
