package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// runTimeout bounds a single refresh run.
const runTimeout = 30 * time.Second

// Refresher is the part of the weather service the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshFunc adapts a function to the Refresher interface.
type RefreshFunc func(ctx context.Context) error

func (f RefreshFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Scheduler periodically refreshes the daily forecast.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, refresher Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval < time.Minute {
		interval = 30 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	s.logger.Debug("running forecast refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error("forecast refresh failed; keeping last good report", slog.Any("error", err))
		return
	}
	s.logger.Debug("completed forecast refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
