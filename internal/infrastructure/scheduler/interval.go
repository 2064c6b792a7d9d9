package scheduler

import (
	"context"
	"sync"
	"time"

	"YourStockNews/internal/ports"
)

// IntervalScheduler runs a job immediately and then on every tick.
// Runs never overlap: a tick that fires while the job is busy is dropped.
type IntervalScheduler struct {
	every time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler firing every d (one hour when d <= 0).
func NewIntervalScheduler(d time.Duration) *IntervalScheduler {
	if d <= 0 {
		d = time.Hour
	}
	return &IntervalScheduler{every: d}
}

// Start begins ticking. Calling Start on a running scheduler is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(context.Context)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()

		job(ctx)
		for {
			select {
			case <-ticker.C:
				job(ctx)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to return or
// for ctx to end.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
