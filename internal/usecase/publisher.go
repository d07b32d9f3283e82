package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PulseForge/internal/domain/models"
	drepo "PulseForge/internal/domain/repository"
	applogger "PulseForge/pkg/logger"
)

// Publisher writes every artifact to every sink. A failing sink does not stop the others.
type Publisher struct {
	sinks   []drepo.ArtifactSink
	log     *applogger.Logger
	metrics drepo.Metrics
}

func NewPublisher(sinks []drepo.ArtifactSink, log *applogger.Logger, metrics drepo.Metrics) *Publisher {
	return &Publisher{sinks: sinks, log: log, metrics: metrics}
}

// Sinks returns the configured sink names in write order.
func (p *Publisher) Sinks() []string {
	names := make([]string, len(p.sinks))
	for i, s := range p.sinks {
		names[i] = s.Name()
	}
	return names
}

// Publish returns the joined errors of all failed writes.
func (p *Publisher) Publish(ctx context.Context, rc RunContext, artifacts []models.Artifact) error {
	var errs []error
	for _, sink := range p.sinks {
		start := time.Now()
		failed := 0
		for _, a := range artifacts {
			a.RunID = rc.RunID.String()
			if err := sink.Write(ctx, a); err != nil {
				failed++
				errs = append(errs, fmt.Errorf("sink %s: %s: %w", sink.Name(), a.FileName(), err))
			}
		}
		p.metrics.RecordLatency("publish_"+sink.Name(), time.Since(start).Seconds())
		if failed > 0 {
			p.metrics.RecordError("publish")
			p.log.Error("publish failed",
				applogger.String("run_id", rc.RunID.String()),
				applogger.String("sink", sink.Name()),
				applogger.Int("failed", failed),
				applogger.Int("artifacts", len(artifacts)),
			)
			continue
		}
		p.log.Debug("published",
			applogger.String("run_id", rc.RunID.String()),
			applogger.String("sink", sink.Name()),
			applogger.Int("artifacts", len(artifacts)),
		)
	}
	return errors.Join(errs...)
}
