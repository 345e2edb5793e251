package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/rotation"
)

// CycleRunner runs one daily cycle.
type CycleRunner interface {
	RunDailyCycle(ctx context.Context, today time.Time) (*rotation.CycleReport, error)
}

// Claimer records that a cycle date has been started. Claim returns false
// when the date was already claimed.
type Claimer interface {
	Claim(ctx context.Context, date string) (bool, error)
}

// Config controls when the daily cycle fires.
type Config struct {
	Hour     int            // local hour at or after which the cycle runs
	Location *time.Location // defaults to time.Local
	Interval time.Duration  // tick period, defaults to one minute
}

// Scheduler runs the daily cycle once per day.
type Scheduler struct {
	mu       sync.RWMutex
	runner   CycleRunner
	claims   Claimer
	hour     int
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a daily cycle scheduler.
func New(runner CycleRunner, claims Claimer, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		claims:   claims,
		hour:     cfg.Hour,
		loc:      cfg.Location,
		interval: cfg.Interval,
		now:      time.Now,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler, waiting for a running cycle.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// tick runs today's cycle if the hour has come and nobody has claimed the
// date yet. A failed cycle is not retried.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now().In(s.loc)
	if now.Hour() < s.hour {
		return
	}

	date := now.Format(model.CycleDateFormat)
	ok, err := s.claims.Claim(ctx, date)
	if err != nil {
		s.logger.Error("claim cycle", "date", date, "error", err)
		return
	}
	if !ok {
		return
	}

	report, err := s.runner.RunDailyCycle(ctx, now)
	if err != nil {
		s.logger.Error("daily cycle failed", "date", date, "error", err)
		return
	}
	s.logger.Info("daily cycle complete", "date", date,
		"assigned", len(report.Assigned), "unassigned", len(report.Unassigned))
}
