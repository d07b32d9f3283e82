package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseForge/internal/usecase"
	"PulseForge/pkg/config"
	xhttp "PulseForge/pkg/http"
	applogger "PulseForge/pkg/logger"
	"PulseForge/pkg/scheduler"
)

// Runner is the pipeline as seen by the application.
type Runner interface {
	Name() string
	Run(ctx context.Context) error
	RunAt(ctx context.Context, asOf time.Time) (*usecase.Result, error)
}

// Closer releases an infrastructure client on shutdown.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	runner     Runner
	scheduler  *scheduler.Scheduler
	httpServer *xhttp.Server // nil when the API is disabled
	closers    []Closer
	asOf       time.Time
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	runner Runner,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
	closers []Closer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		runner:     runner,
		scheduler:  sched,
		httpServer: httpServer,
		closers:    closers,
	}
}

// SetAsOf pins the scored day for once mode.
func (a *App) SetAsOf(t time.Time) { a.asOf = t }

// Run dispatches on the configured mode and blocks until done or ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	defer a.close()
	switch a.cfg.Mode {
	case config.ModeOnce:
		return a.runOnce(ctx)
	case config.ModeServe:
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown mode %q", a.cfg.Mode)
	}
}

func (a *App) runOnce(ctx context.Context) error {
	if a.cfg.Schedule.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Schedule.Timeout)
		defer cancel()
	}
	res, err := a.runner.RunAt(ctx, a.asOf)
	if res != nil && res.Output != nil {
		a.log.Info("run finished",
			applogger.String("run_id", res.Context.RunID.String()),
			applogger.Date("as_of", res.Output.AsOf),
			applogger.Int("artifacts", len(res.Artifacts)),
			applogger.Strings("failed_symbols", res.Failed),
		)
	}
	return err
}

func (a *App) serve(ctx context.Context) error {
	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	if err := a.scheduler.AddJob(a.cfg.Schedule.Cron, a.runner); err != nil {
		return err
	}
	a.scheduler.Start()
	a.log.Info("next scheduled run", applogger.String("at", a.scheduler.Next().Format(time.RFC3339)))

	if a.cfg.Schedule.RunOnStart {
		go func() {
			err := a.scheduler.RunNow(ctx, a.runner)
			if err != nil && !errors.Is(err, usecase.ErrRunInProgress) && ctx.Err() == nil {
				a.log.Error("startup run failed", applogger.Error(err))
			}
		}()
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
		errs = append(errs, err)
	}
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

// close runs the closers in reverse registration order.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}
	a.closers = nil
}
