package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestScheduler_RunsAndStops(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 1)
	s.AddJob("tick", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	s.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	s.Stop()
}

func TestScheduler_FailingJobKeepsTicking(t *testing.T) {
	s := NewScheduler()
	runs := make(chan struct{}, 4)
	s.AddJob("flaky", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case runs <- struct{}{}:
		default:
		}
		return errors.New("boom")
	})
	s.Start()
	defer s.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("job stopped after failure, run %d never came", i+1)
		}
	}
}
