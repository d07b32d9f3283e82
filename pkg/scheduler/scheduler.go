// Package scheduler runs jobs on cron schedules in a fixed timezone.
package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "PulseForge/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Option func(*Scheduler) error

// WithTimezone evaluates schedules in the named IANA zone.
func WithTimezone(name string) Option {
	return func(s *Scheduler) error {
		if name == "" {
			return nil
		}
		loc, err := time.LoadLocation(name)
		if err != nil {
			return fmt.Errorf("timezone %q: %w", name, err)
		}
		s.loc = loc
		return nil
	}
}

// WithJobTimeout bounds each scheduled run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) error {
		s.timeout = d
		return nil
	}
}

// Scheduler wraps robfig/cron. A job still running when its next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	log     *applogger.Logger
	loc     *time.Location
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(log *applogger.Logger, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{log: log.With(applogger.String("component", "scheduler")), loc: time.UTC}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	cl := cronLogger{l: s.log}
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// AddJob registers job under a standard five-field spec or a descriptor such as "@daily".
func (s *Scheduler) AddJob(spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() {
		if err := s.execute(s.ctx, job); err != nil {
			s.log.Error("job failed", applogger.String("job", job.Name()), applogger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name(), spec, err)
	}
	s.log.Info("job registered",
		applogger.String("job", job.Name()),
		applogger.String("schedule", spec),
		applogger.String("timezone", s.loc.String()),
		applogger.Any("entry", int(id)),
	)
	return nil
}

// RunNow executes job immediately on the caller's goroutine.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info("running job immediately", applogger.String("job", job.Name()))
	return s.execute(ctx, job)
}

// Next returns the earliest upcoming run, zero when nothing is scheduled or the scheduler is stopped.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if !e.Next.IsZero() && (next.IsZero() || e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

func (s *Scheduler) Location() *time.Location { return s.loc }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop cancels running jobs' context once ctx expires and waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return ctx.Err()
	}
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	s.log.Debug("running job", applogger.String("job", job.Name()))
	err := job.Run(ctx)
	s.log.Debug("job finished",
		applogger.String("job", job.Name()),
		applogger.Duration("duration_ms", time.Since(start)),
		applogger.Bool("ok", err == nil),
	)
	return err
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(kvFields(keysAndValues), applogger.Error(err))...)
}

func kvFields(kv []interface{}) []applogger.Field {
	out := make([]applogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, applogger.Any(key, kv[i+1]))
	}
	return out
}
