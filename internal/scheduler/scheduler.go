// Package scheduler drives capture cycles at a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner executes one unit of scheduled work.
type Runner func(ctx context.Context)

// Config configures the scheduler.
type Config struct {
	// Interval between runs. Default: 4 minutes.
	Interval time.Duration
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = 4 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scheduler invokes a Runner on a fixed ticker. Runs never overlap: the
// runner is called from the loop itself, so a run that outlasts the interval
// delays the next tick instead of racing it.
type Scheduler struct {
	run    Runner
	config Config
}

// New creates a Scheduler.
func New(run Runner, cfg Config) *Scheduler {
	cfg.defaults()
	return &Scheduler{run: run, config: cfg}
}

// Run executes the runner once immediately, then on every tick. Blocks until
// ctx is cancelled; a run in progress when ctx is cancelled completes before
// Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.config.Logger.Info("scheduler: started", "interval", s.config.Interval)

	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			s.config.Logger.Info("scheduler: stopped")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}
