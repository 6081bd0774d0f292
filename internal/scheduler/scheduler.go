// Package scheduler runs the batch goal check on a cron schedule inside the
// API process. Deployments that trigger the check externally leave the
// schedule empty and call the internal endpoint or `budgetctl check-goals`.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"budgetwise/internal/logger"
	"budgetwise/internal/services"
)

// GoalChecker is the part of the notification engine the scheduler drives.
type GoalChecker interface {
	CheckAllGoals(ctx context.Context, today time.Time) (*services.CheckReport, error)
}

// Scheduler triggers CheckAllGoals on every tick of its cron spec.
type Scheduler struct {
	cron    *cron.Cron
	checker GoalChecker
	timeout time.Duration
	now     func() time.Time
	ctx     context.Context
}

// New parses spec (standard five-field cron or a descriptor such as
// "@daily") and registers the goal check. Ticks are evaluated in UTC and a
// tick that fires while the previous check is still running is skipped.
func New(spec string, checker GoalChecker, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		checker: checker,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
		ctx:     context.Background(),
	}

	log := cronLogger{logger.Get()}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid notification schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs a single goal check for today.
func (s *Scheduler) RunOnce(ctx context.Context) (*services.CheckReport, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := s.now()
	report, err := s.checker.CheckAllGoals(ctx, started)
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("goal check finished",
		"goals_checked", report.GoalsChecked,
		"emitted", report.Total(),
		"duration", time.Since(started),
	)
	return report, nil
}

// Run starts the cron loop and blocks until ctx is cancelled. Running
// checks are allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	logger.Get().Infow("notification scheduler started", "next_run", s.next())

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	logger.Get().Info("notification scheduler stopped")
	return nil
}

func (s *Scheduler) tick() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		logger.Get().Errorw("scheduled goal check failed", "error", err)
	}
}

func (s *Scheduler) next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
