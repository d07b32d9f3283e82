package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"PulseForge/internal/domain/models"
	domrepo "PulseForge/internal/domain/repository"
	"PulseForge/pkg/cache"
)

const DefaultArtifactTTL = 7 * 24 * time.Hour

// ArtifactKey is the cache key an artifact is stored and served under.
func ArtifactKey(name string) string { return cache.GenerateKey("artifact", name) }

// FileSink writes <dir>/<name>.json, replacing the previous file atomically.
type FileSink struct {
	dir string
}

var _ domrepo.ArtifactSink = (*FileSink)(nil)

// NewFileSink creates dir when missing.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Write(ctx context.Context, a models.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+a.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", a.FileName(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", a.FileName(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, a.FileName()))
}

// CacheSink stores artifact bodies for the HTTP API.
type CacheSink struct {
	store cache.Store
	ttl   time.Duration
}

var _ domrepo.ArtifactSink = (*CacheSink)(nil)

func NewCacheSink(store cache.Store, ttl time.Duration) *CacheSink {
	if ttl <= 0 {
		ttl = DefaultArtifactTTL
	}
	return &CacheSink{store: store, ttl: ttl}
}

func (s *CacheSink) Name() string { return "cache" }

func (s *CacheSink) Write(ctx context.Context, a models.Artifact) error {
	return s.store.SetBytes(ctx, ArtifactKey(a.Name), a.Body, s.ttl)
}

// HeaderPublisher is the subset of *kafka.Producer used by KafkaSink.
type HeaderPublisher interface {
	PublishWithHeaders(ctx context.Context, topic string, key []byte, value interface{}, headers map[string]string) error
}

// KafkaSink publishes each artifact keyed by name so a compacted topic keeps the latest document.
type KafkaSink struct {
	producer HeaderPublisher
	topic    string
}

var _ domrepo.ArtifactSink = (*KafkaSink)(nil)

func NewKafkaSink(producer HeaderPublisher, topic string) *KafkaSink {
	if topic == "" {
		topic = "pulseforge.artifacts"
	}
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, a models.Artifact) error {
	headers := map[string]string{
		"artifact":     a.Name,
		"content-type": "application/json",
	}
	if a.RunID != "" {
		headers["run_id"] = a.RunID
	}
	return s.producer.PublishWithHeaders(ctx, s.topic, []byte(a.Name), a.Body, headers)
}
