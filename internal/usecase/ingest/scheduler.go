package ingest

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs Reembed on a cron schedule. Overlapping runs are skipped.
// Jobs run on a context that Stop cancels.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
	cancel context.CancelFunc
}

// NewScheduler registers a re-embed job. spec accepts the standard five fields
// and descriptors such as "@hourly".
func NewScheduler(svc *Service, spec string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newScheduler(spec, logger, func(ctx context.Context) {
		rep, err := svc.Reembed(ctx, false)
		if err != nil {
			logger.Error("scheduled reembed failed", zap.Error(err), zap.Int("embedded", rep.Embedded))
		}
	})
}

func newScheduler(spec string, logger *zap.Logger, job func(ctx context.Context)) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{l: logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := c.AddFunc(spec, func() { job(ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("parse reembed schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger, cancel: cancel}, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reembed scheduler started")
}

// Stop halts the schedule and waits for a running job. When ctx ends first the job is
// cancelled, and Stop still waits for it to return so the store outlives it.
func (s *Scheduler) Stop(ctx context.Context) {
	defer s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return
	case <-ctx.Done():
		s.logger.Warn("reembed job still running at shutdown, cancelling")
	}
	s.cancel()
	<-done.Done()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
