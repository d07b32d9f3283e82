package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseForge/internal/domain/models"
	drepo "PulseForge/internal/domain/repository"
	"PulseForge/pkg/cache"
	applogger "PulseForge/pkg/logger"
)

// ErrRunInProgress is returned when another instance holds the run lock.
var ErrRunInProgress = errors.New("pipeline run already in progress")

const runLockKey = "lock:pipeline"

// Run outcomes recorded on the runs counter.
const (
	RunOK       = "ok"
	RunDegraded = "degraded" // published, but a fetch or a sink failed
	RunFailed   = "failed"
	RunSkipped  = "skipped"
)

// Result of one pipeline run.
type Result struct {
	Context   RunContext
	Output    *models.Output
	Artifacts []models.Artifact
	Failed    []string
}

// Pipeline is fetch, score, encode and publish for one run date.
type Pipeline struct {
	collector *Collector
	engine    *PulseEngine
	builder   *ArtifactBuilder
	publisher *Publisher
	locker    cache.Locker // optional
	lockTTL   time.Duration
	now       func() time.Time
	log       *applogger.Logger
	metrics   drepo.Metrics
}

type PipelineOption func(*Pipeline)

// WithRunLock guards runs with a lock shared by every instance.
func WithRunLock(l cache.Locker, ttl time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.locker = l
		p.lockTTL = ttl
	}
}

// WithClock replaces the wall clock used for RunContext.Now.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(
	collector *Collector,
	engine *PulseEngine,
	builder *ArtifactBuilder,
	publisher *Publisher,
	log *applogger.Logger,
	metrics drepo.Metrics,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		collector: collector,
		engine:    engine,
		builder:   builder,
		publisher: publisher,
		lockTTL:   15 * time.Minute,
		now:       time.Now,
		log:       log,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name identifies the pipeline as a scheduled job.
func (p *Pipeline) Name() string { return "pulse_pipeline" }

// Run scores the latest available day.
func (p *Pipeline) Run(ctx context.Context) error {
	_, err := p.RunAt(ctx, time.Time{})
	return err
}

// RunAt runs the pipeline for asOf; the zero time means the latest available day.
func (p *Pipeline) RunAt(ctx context.Context, asOf time.Time) (*Result, error) {
	rc := NewRunContext(asOf, p.now())
	log := p.log.With(applogger.String("run_id", rc.RunID.String()))

	if p.locker != nil {
		ok, err := p.locker.TryLock(ctx, runLockKey, p.lockTTL)
		if err != nil {
			p.metrics.RecordError("lock")
			log.Warn("run lock unavailable, continuing unlocked", applogger.Error(err))
		} else if !ok {
			p.metrics.RecordRun(RunSkipped)
			log.Info("run skipped, lock held elsewhere")
			return nil, ErrRunInProgress
		} else {
			defer func() {
				if err := p.locker.Unlock(context.WithoutCancel(ctx), runLockKey); err != nil {
					log.Warn("run lock release failed", applogger.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	log.Info("pipeline started", applogger.Date("as_of", rc.AsOf), applogger.Strings("sinks", p.publisher.Sinks()))

	res, err := p.run(ctx, rc, log)
	p.metrics.RecordLatency("pipeline", time.Since(start).Seconds())
	if err != nil {
		if res == nil {
			p.metrics.RecordRun(RunFailed)
		}
		log.Error("pipeline failed", applogger.Error(err), applogger.Duration("duration_ms", time.Since(start)))
		return res, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, rc RunContext, log *applogger.Logger) (*Result, error) {
	stage := time.Now()
	col, err := p.collector.Collect(ctx, rc)
	if err != nil {
		return nil, err
	}
	p.metrics.RecordLatency("collect", time.Since(stage).Seconds())

	stage = time.Now()
	out, err := p.engine.Run(rc, col.Input)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	mergeQuotes(out, col.Quotes)
	p.metrics.RecordLatency("engine", time.Since(stage).Seconds())

	for _, sv := range out.Signals {
		if !sv.Present() {
			p.metrics.RecordDegradedSignal(string(sv.Name))
			log.Debug("signal degraded", applogger.String("signal", string(sv.Name)), applogger.String("status", string(sv.Status)))
		}
	}
	if out.Current != nil {
		p.metrics.RecordScore(out.Current.Score)
	}

	artifacts, err := p.builder.Build(rc, out)
	if err != nil {
		return nil, fmt.Errorf("build artifacts: %w", err)
	}
	res := &Result{Context: rc, Output: out, Artifacts: artifacts, Failed: col.Failed}

	stage = time.Now()
	pubErr := p.publisher.Publish(ctx, rc, artifacts)
	p.metrics.RecordLatency("publish", time.Since(stage).Seconds())

	fields := []applogger.Field{
		applogger.Date("as_of", out.AsOf),
		applogger.Int("days_scored", len(out.Pulse)),
		applogger.Strings("failed_symbols", col.Failed),
	}
	if out.Current != nil {
		fields = append(fields,
			applogger.Float64("score", out.Current.Score),
			applogger.String("sentiment", string(out.Current.Signal)),
		)
	}
	switch {
	case pubErr != nil:
		p.metrics.RecordRun(RunDegraded)
		log.Warn("pipeline finished with publish errors", append(fields, applogger.Error(pubErr))...)
		return res, fmt.Errorf("publish: %w", pubErr)
	case len(col.Failed) > 0:
		p.metrics.RecordRun(RunDegraded)
	default:
		p.metrics.RecordRun(RunOK)
	}
	log.Info("pipeline finished", fields...)
	return res, nil
}

// mergeQuotes overlays snapshot quotes on the history-derived ones.
// History volume is kept since snapshot quotes carry none.
func mergeQuotes(out *models.Output, snapshots map[string]models.Quote) {
	for sym, q := range snapshots {
		if prev, ok := out.Quotes[sym]; ok {
			if q.Volume == 0 {
				q.Volume = prev.Volume
			}
			if q.Date.IsZero() {
				q.Date = prev.Date
			}
		}
		out.Quotes[sym] = q
	}
}
