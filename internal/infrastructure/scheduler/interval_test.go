package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	ticks := make(chan struct{}, 16)
	s := NewIntervalScheduler(10 * time.Millisecond)

	err := s.Start(context.Background(), func(context.Context) {
		runs.Add(1)
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-ticks:
		case <-time.After(2 * time.Second):
			t.Fatalf("job ran only %d times", runs.Load())
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job kept running after stop")
	}
}

func TestIntervalSchedulerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour)

	started := make(chan struct{})
	if err := s.Start(ctx, func(context.Context) { close(started) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop after cancel: %v", err)
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
