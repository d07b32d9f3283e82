package di

import (
	"context"
	"fmt"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/domain/repository"
	"PulseForge/internal/handler/api"
	internalrepo "PulseForge/internal/repository"
	"PulseForge/internal/service/finnhub"
	"PulseForge/internal/service/polygon"
	"PulseForge/internal/service/ratelimit"
	"PulseForge/internal/usecase"
	"PulseForge/pkg/cache"
	pkgch "PulseForge/pkg/clickhouse"
	"PulseForge/pkg/config"
	xhttp "PulseForge/pkg/http"
	pkgkafka "PulseForge/pkg/kafka"
	applogger "PulseForge/pkg/logger"
	"PulseForge/pkg/metrics"
	"PulseForge/pkg/scheduler"
	"PulseForge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideLimiter is shared by every upstream client so keys never collide across instances.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideClickHouseClient connects only when the source or the archive needs it.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Source.Type != config.SourceClickHouse && !cfg.Source.Archive {
		return nil, nil
	}
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(ch.MaxOpenConns, ch.MaxIdleConns),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the bars table; nil without a ClickHouse client.
func ProvideBarStore(client *pkgch.Client, cfg *config.Config, log *applogger.Logger) (*internalrepo.CHObservationSource, error) {
	if client == nil {
		return nil, nil
	}
	store := internalrepo.NewCHObservationSource(client, cfg.ClickHouse.Table, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideObservationSource picks the history source named by source.type.
func ProvideObservationSource(cfg *config.Config, limiter *ratelimit.Limiter, store *internalrepo.CHObservationSource) (repository.ObservationSource, error) {
	switch cfg.Source.Type {
	case config.SourceClickHouse:
		if store == nil {
			return nil, fmt.Errorf("clickhouse source without a client")
		}
		return store, nil
	default:
		return polygon.New(cfg.Polygon, limiter), nil
	}
}

// ProvideQuoteSource is nil without a Finnhub key; watchlist names then fall back to history.
func ProvideQuoteSource(cfg *config.Config, limiter *ratelimit.Limiter) repository.QuoteSource {
	if cfg.Finnhub.APIKey == "" {
		return nil
	}
	return finnhub.New(cfg.Finnhub, limiter)
}

// ProvideArchive stores fetched bars when replaying from the source is not already the archive.
func ProvideArchive(cfg *config.Config, store *internalrepo.CHObservationSource) repository.ObservationArchive {
	if store == nil || !cfg.Source.Archive || cfg.Source.Type == config.SourceClickHouse {
		return nil
	}
	return store
}

// ProvideCache builds the artifact cache and run lock backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	oc := cfg.Output.Cache
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(oc.MaxSize), cache.WithMemoryDefaultTTL(oc.TTL))
	}
	if oc.Backend == "memory" {
		return memory(), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 4*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if oc.Backend == "layered" {
		return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(oc.MaxSize), cache.WithLayeredMemoryTTL(oc.MemoryTTL)), nil
	}
	return rc, nil
}

// ProvideKafkaProducer is nil when neither artifacts nor logs go to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Output.Kafka && !cfg.LogCollector.Enabled {
		return nil, nil
	}
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithBatchBytes(k.BatchBytes),
		pkgkafka.WithBatchTimeout(50*time.Millisecond),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideStreamHub is nil when streaming is off or the API is disabled.
func ProvideStreamHub(cfg *config.Config, log *applogger.Logger) *api.StreamHub {
	if !cfg.Output.Stream || !cfg.Server.Enabled || cfg.Mode != config.ModeServe {
		return nil
	}
	return api.NewStreamHub(log, cfg.Server.CORSOrigins...)
}

// ProvideSinks lists the artifact sinks in write order: files first.
func ProvideSinks(cfg *config.Config, store cache.Service, producer *pkgkafka.Producer, hub *api.StreamHub) ([]repository.ArtifactSink, error) {
	files, err := internalrepo.NewFileSink(cfg.Output.DataDir)
	if err != nil {
		return nil, err
	}
	sinks := []repository.ArtifactSink{files, internalrepo.NewCacheSink(store, cfg.Output.Cache.TTL)}
	if cfg.Output.Kafka && producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic))
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	return sinks, nil
}

// ProvideUniverse derives the fetch lists. Without a quote source the
// watchlist is fetched as history and quoted from its last two closes.
func ProvideUniverse(cfg *config.Config, quotes repository.QuoteSource) usecase.Universe {
	u := cfg.Universe
	univ := usecase.Universe{Benchmark: u.Benchmark, VIX: u.VIX}
	univ.History = append(univ.History, u.Symbols...)
	univ.History = append(univ.History, u.Sectors...)
	univ.History = append(univ.History, u.Metrics...)
	if quotes != nil {
		univ.Snapshots = append(univ.Snapshots, u.Watchlist...)
	} else {
		univ.History = append(univ.History, u.Watchlist...)
	}
	return univ
}

// ProvideEngine validates the engine settings. An empty breadth universe
// becomes the benchmark, the index symbols and the sector funds.
func ProvideEngine(cfg *config.Config) (*usecase.PulseEngine, error) {
	ec := cfg.Engine
	if len(ec.Universe) == 0 {
		ec.Universe = append(ec.Universe, cfg.Universe.Benchmark.Symbol)
		for _, inst := range append(append([]models.Instrument{}, cfg.Universe.Symbols...), cfg.Universe.Sectors...) {
			ec.Universe = append(ec.Universe, inst.Symbol)
		}
	}
	return usecase.NewPulseEngine(ec, cfg.Output.StaticNotes)
}

func ProvideArtifactBuilder(cfg *config.Config) *usecase.ArtifactBuilder {
	return usecase.NewArtifactBuilder(usecase.ArtifactSet{
		Metrics:   cfg.Universe.Metrics,
		Sectors:   cfg.Universe.Sectors,
		Watchlist: cfg.Universe.Watchlist,
	})
}

func ProvideCollector(
	cfg *config.Config,
	source repository.ObservationSource,
	quotes repository.QuoteSource,
	archive repository.ObservationArchive,
	univ usecase.Universe,
	log *applogger.Logger,
	m repository.Metrics,
) *usecase.Collector {
	return usecase.NewCollector(source, quotes, archive, univ, usecase.CollectorConfig{
		LookbackDays: cfg.Source.LookbackDays,
		Concurrency:  cfg.Source.Concurrency,
		Timeout:      cfg.Source.Timeout,
	}, log, m)
}

func ProvidePublisher(sinks []repository.ArtifactSink, log *applogger.Logger, m repository.Metrics) *usecase.Publisher {
	return usecase.NewPublisher(sinks, log, m)
}

func ProvidePipeline(
	cfg *config.Config,
	collector *usecase.Collector,
	engine *usecase.PulseEngine,
	builder *usecase.ArtifactBuilder,
	publisher *usecase.Publisher,
	locker cache.Service,
	log *applogger.Logger,
	m repository.Metrics,
) *usecase.Pipeline {
	return usecase.NewPipeline(collector, engine, builder, publisher, log, m,
		usecase.WithRunLock(locker, cfg.Schedule.LockTTL),
	)
}

func ProvideScheduler(cfg *config.Config, log *applogger.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(log,
		scheduler.WithTimezone(cfg.Schedule.Timezone),
		scheduler.WithJobTimeout(cfg.Schedule.Timeout),
	)
}

// ProvideHTTPServer is nil in once mode or when the API is disabled.
func ProvideHTTPServer(
	cfg *config.Config,
	log *applogger.Logger,
	store cache.Service,
	hub *api.StreamHub,
	ch *pkgch.Client,
) *xhttp.Server {
	if !cfg.Server.Enabled || cfg.Mode != config.ModeServe {
		return nil
	}
	checks := map[string]api.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := store.Exists(ctx, "health")
			return err
		},
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	handlers := []xhttp.Handler{
		api.NewArtifactsHandler(log, store, api.ArtifactsConfig{
			RatePerSecond: cfg.Server.RatePerSecond,
			Burst:         cfg.Server.Burst,
		}, checks),
	}
	if hub != nil {
		handlers = append(handlers, hub)
	}
	s := cfg.Server
	return xhttp.NewServer(log, handlers,
		xhttp.WithHost(s.Host),
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithCORS(s.CORSOrigins...),
	)
}

// ProvideApp attaches the log collector and registers closers for every client that was opened.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
	store cache.Service,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	hub *api.StreamHub,
) *server.App {
	var closers []server.Closer
	if ch != nil {
		closers = append(closers, server.Closer{Name: "clickhouse", Close: ch.Close})
	}
	if producer != nil {
		closers = append(closers, server.Closer{Name: "kafka", Close: producer.Close})
		if cfg.LogCollector.Enabled {
			lc := cfg.LogCollector
			log.AddCollector(&applogger.CollectionConfig{
				Service:        "pulseforge",
				TimeInterval:   lc.Interval,
				CountThreshold: lc.CountThreshold,
				Topic:          lc.Topic,
				Publisher:      producer,
			})
			closers = append(closers, server.Closer{Name: "log_collector", Close: func() error {
				log.RemoveCollector()
				return nil
			}})
		}
	}
	closers = append(closers, server.Closer{Name: "cache", Close: store.Close})
	if hub != nil {
		closers = append(closers, server.Closer{Name: "stream", Close: hub.Close})
	}
	return server.New(cfg, log, pipeline, sched, httpServer, closers)
}
