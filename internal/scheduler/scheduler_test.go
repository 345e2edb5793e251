package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/znicholasbrown/chorebot/internal/database"
	"github.com/znicholasbrown/chorebot/internal/rotation"
	"github.com/znicholasbrown/chorebot/internal/store"
)

type fakeRunner struct {
	mu   sync.Mutex
	runs []time.Time
	err  error
}

func (f *fakeRunner) RunDailyCycle(_ context.Context, today time.Time) (*rotation.CycleReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, today)
	if f.err != nil {
		return nil, f.err
	}
	return &rotation.CycleReport{Date: today.Format("2006-01-02")}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func newTestScheduler(t *testing.T, runner CycleRunner) *Scheduler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(runner, store.NewCycleStore(db), Config{Hour: 9, Location: time.UTC}, nil)
}

func TestTickRunsOncePerDay(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(t, runner)
	ctx := context.Background()

	now := time.Date(2026, 10, 15, 8, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.tick(ctx)
	if runner.count() != 0 {
		t.Fatal("cycle ran before the configured hour")
	}

	now = now.Add(time.Minute)
	s.tick(ctx)
	s.tick(ctx)
	if runner.count() != 1 {
		t.Fatalf("runs = %d, want 1", runner.count())
	}

	now = now.Add(24 * time.Hour)
	s.tick(ctx)
	if runner.count() != 2 {
		t.Errorf("runs = %d, want 2 after the next day", runner.count())
	}
}

func TestTickDoesNotRetryFailedCycle(t *testing.T) {
	runner := &fakeRunner{err: errors.New("calendar down")}
	s := newTestScheduler(t, runner)
	s.now = func() time.Time { return time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC) }

	s.tick(context.Background())
	s.tick(context.Background())
	if runner.count() != 1 {
		t.Errorf("runs = %d, want 1", runner.count())
	}
}

func TestTickUsesLocation(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(t, runner)
	s.loc = time.FixedZone("UTC-10", -10*3600)

	// 15:00 UTC is 05:00 local, before the cycle hour.
	s.now = func() time.Time { return time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC) }
	s.tick(context.Background())
	if runner.count() != 0 {
		t.Error("cycle should wait for the local hour")
	}
}

func TestStartStop(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(t, runner)
	s.interval = 10 * time.Millisecond
	s.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runner.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if runner.count() != 1 {
		t.Errorf("runs = %d, want exactly 1", runner.count())
	}
}
