package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/usecase"
	"gitlab.com/timkado/api/wa-automations/pkg/logger"
)

// Scheduler triggers automation jobs on cron specs. Ticks may overlap a run
// still in progress; the delivery log keeps them idempotent.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	ctx     context.Context
	entries map[string]cron.EntryID
}

// New creates a scheduler evaluating specs in UTC
func New(log *zap.Logger) *Scheduler {
	named := log.Named("scheduler")
	adapter := cronLogger{sugar: named.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter)),
		),
		log:     named,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
}

// Register schedules job on spec. An empty spec leaves the job unscheduled.
func (s *Scheduler) Register(spec string, job usecase.Job) error {
	if spec == "" {
		s.log.Info("No cron spec, job not scheduled", zap.String("job", job.Name()))
		return nil
	}
	if _, ok := s.entries[job.Name()]; ok {
		return fmt.Errorf("job %s already registered", job.Name())
	}
	id, err := s.cron.AddJob(spec, s.wrap(job))
	if err != nil {
		return fmt.Errorf("invalid cron spec %q for %s: %w", spec, job.Name(), err)
	}
	s.entries[job.Name()] = id
	s.log.Info("Job scheduled", zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// Start begins ticking. Runs receive ctx, so cancelling it interrupts them.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.log.Info("Scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop stops ticking and waits for in-flight runs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Next returns the next activation of the named job, zero when unscheduled
func (s *Scheduler) Next(name string) time.Time {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) wrap(job usecase.Job) cron.FuncJob {
	return func() {
		ctx := logger.WithLogger(s.ctx, s.log.With(zap.String("trigger", "cron")))
		if _, err := job.Run(ctx); err != nil {
			// the job logs run details itself
			s.log.Debug("Scheduled run returned error", zap.String("job", job.Name()), zap.Error(err))
		}
	}
}

// cronLogger routes cron's own logging to zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
