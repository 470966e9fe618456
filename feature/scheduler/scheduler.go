package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler triggers the orchestrator on a fixed interval.
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	runOnStart   bool
	logger       *zap.Logger
}

// NewScheduler creates a Scheduler from cfg.
func NewScheduler(o *Orchestrator, cfg Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		orchestrator: o,
		interval:     cfg.Interval,
		runOnStart:   cfg.RunOnStart,
		logger:       logger,
	}
}

// Run triggers cycles until ctx is cancelled. On cancellation the running
// cycle is asked to abort and Run waits for every cycle to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.New("sync interval must be positive")
	}

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_start", s.runOnStart),
	)
	defer s.shutdown()

	if s.runOnStart {
		s.trigger(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.trigger(ctx)
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.orchestrator.Start(ctx) {
		s.logger.Debug("Sync cycle still running, skipping tick")
	}
}

func (s *Scheduler) shutdown() {
	s.orchestrator.AbortSync()
	s.orchestrator.Wait()
	s.logger.Info("Scheduler stopped")
}
