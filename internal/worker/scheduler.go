package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	applog "ledger/internal/log"
)

// Scheduler runs the periodic full resync.
type Scheduler struct {
	cron    *cron.Cron
	worker  *SyncWorker
	timeout time.Duration
	logger  *applog.Logger
}

// NewScheduler registers worker.Resync under the standard five-field cron
// spec. Overlapping runs are skipped.
func NewScheduler(worker *SyncWorker, spec string, timeout time.Duration, logger *applog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		worker:  worker,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(spec, s.runResync); err != nil {
		return nil, fmt.Errorf("schedule resync %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runResync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.worker.Resync(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Scheduled resync failed", applog.FieldError, err)
	}
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.InfoContext(ctx, "Resync scheduler started")
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger adapts applog.Logger to cron.Logger.
type cronLogger struct {
	logger *applog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{applog.FieldError, err}, keysAndValues...)...)
}
