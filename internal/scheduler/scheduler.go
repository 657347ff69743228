// Package scheduler runs check cycles on a cron schedule for watch mode.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CycleFunc executes one full check cycle.
type CycleFunc func(ctx context.Context) error

// Scheduler drives periodic check cycles.
type Scheduler struct {
	cron   *cron.Cron
	cycle  CycleFunc
	logger *slog.Logger
}

// New creates a scheduler around one cycle function.
func New(cycle CycleFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		cycle:  cycle,
		logger: logger.With("component", "scheduler"),
	}
}

// Register adds the check cycle under the given cron expression.
func (s *Scheduler) Register(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		s.logger.Info("running scheduled check cycle")
		if err := s.cycle(ctx); err != nil {
			s.logger.Error("check cycle failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register check cycle: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
