package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers pipeline cycles on a cron schedule. The first
// cycle runs immediately on Start, subsequent ones follow the schedule.
type Scheduler struct {
	runner   *Runner
	schedule string
	cron     *cron.Cron
}

func NewScheduler(runner *Runner, schedule string) *Scheduler {
	return &Scheduler{
		runner:   runner,
		schedule: schedule,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	logger := cronLogger{}

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(logger),
		cron.Recover(logger),
	))

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Pipeline scheduler started", "schedule", s.schedule)

	go s.runOnce(ctx)

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	slog.Info("Pipeline scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.runner.RunCycle(ctx); err != nil {
		if errors.Is(err, ErrCycleInFlight) {
			slog.Info("Skipping scheduled cycle, previous one still running")
			return
		}
		slog.Error("Pipeline cycle failed", "error", err.Error())
	}
}

// cronLogger adapts the cron library's logging calls onto slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error(msg, append(keysAndValues, "error", err.Error())...)
}
