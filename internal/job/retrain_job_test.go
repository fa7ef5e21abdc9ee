package job

import (
	"context"
	"testing"
	"time"
)

func TestNextRunUTC(t *testing.T) {
	now := time.Date(2025, 5, 10, 3, 30, 0, 0, time.UTC)

	next := nextRunUTC(now, 4)
	if next != time.Date(2025, 5, 10, 4, 0, 0, 0, time.UTC) {
		t.Fatalf("expected same-day run, got %v", next)
	}

	next = nextRunUTC(now, 3)
	if next != time.Date(2025, 5, 11, 3, 0, 0, 0, time.UTC) {
		t.Fatalf("hour already passed should roll to next day, got %v", next)
	}

	exact := time.Date(2025, 5, 10, 4, 0, 0, 0, time.UTC)
	next = nextRunUTC(exact, 4)
	if next != exact.Add(24*time.Hour) {
		t.Fatalf("run at the exact hour should schedule tomorrow, got %v", next)
	}
}

func TestNewRetrainJobClampsHour(t *testing.T) {
	j := NewRetrainJob(nil, nil, 99)
	if j.trainHour != 0 {
		t.Fatalf("out-of-range hour should clamp to 0, got %d", j.trainHour)
	}
}

func TestStartWithoutRunnerWaitsForCancel(t *testing.T) {
	j := NewRetrainJob(nil, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
