// Package scheduler wires up the cron job that periodically runs the saved
// search notifier.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"lockedin/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner interface {
	RunAllDue(ctx context.Context, opts usecase.RunOptions) (usecase.RunReport, error)
}

// Scheduler wraps robfig/cron. Overlapping ticks are skipped, so at most one
// notification run is in flight per process.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	runner Runner
	logger *zap.Logger

	wg sync.WaitGroup
}

func New(spec string, runner Runner, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")
	cl := cronLogger{s: logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		spec:   spec,
		runner: runner,
		logger: logger,
	}
}

// Start registers the job and starts the cron loop. One run is triggered
// immediately so pending matches do not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	// one wrapper shared by the ticks and the initial run
	job := cron.FuncJob(func() { s.runOnce(ctx) })
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s: s.logger.Sugar()})).Then(job)

	if _, err := s.cron.AddJob(s.spec, wrapped); err != nil {
		return fmt.Errorf("cron.AddJob %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("cron started", zap.String("spec", s.spec))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		wrapped.Run()
	}()
	return nil
}

// Stop prevents new runs and waits for a running one to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("cron stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	rep, err := s.runner.RunAllDue(ctx, usecase.RunOptions{})
	if err != nil {
		s.logger.Error("notification run failed", zap.Error(err))
		return
	}
	s.logger.Info("notification run complete",
		zap.Int("searches", len(rep.Searches)),
		zap.Int("notified", rep.Count(usecase.OutcomeNotified)),
		zap.Int("failed", rep.Count(usecase.OutcomeFailed)),
	)
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
