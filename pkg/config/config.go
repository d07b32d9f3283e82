package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"PulseForge/internal/domain/models"
	"PulseForge/internal/service/finnhub"
	"PulseForge/internal/service/polygon"
	applogger "PulseForge/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeOnce  = "once"
	ModeServe = "serve"

	SourcePolygon    = "polygon"
	SourceClickHouse = "clickhouse"
)

type Config struct {
	Environment  string              `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Mode         string              `yaml:"mode" default:"serve" validate:"oneof=once serve"`
	Logger       applogger.Config    `yaml:"logger"`
	LogCollector LogCollectorConfig  `yaml:"log_collector"`
	Server       ServerConfig        `yaml:"server"`
	Schedule     ScheduleConfig      `yaml:"schedule"`
	Source       SourceConfig        `yaml:"source"`
	Polygon      polygon.Config      `yaml:"polygon"`
	Finnhub      finnhub.Config      `yaml:"finnhub"`
	ClickHouse   ClickHouseConfig    `yaml:"clickhouse"`
	Redis        RedisConfig         `yaml:"redis"`
	Kafka        KafkaConfig         `yaml:"kafka"`
	Universe     UniverseConfig      `yaml:"universe"`
	Engine       models.EngineConfig `yaml:"engine"`
	Output       OutputConfig        `yaml:"output"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RatePerSecond   float64       `yaml:"rate_per_second" default:"20"`
	Burst           float64       `yaml:"burst" default:"40"`
}

type ScheduleConfig struct {
	Cron       string        `yaml:"cron" default:"0 18 * * 1-5"`
	Timezone   string        `yaml:"timezone" default:"America/New_York"`
	RunOnStart bool          `yaml:"run_on_start"`
	Timeout    time.Duration `yaml:"timeout" default:"20m"`
	LockTTL    time.Duration `yaml:"lock_ttl" default:"30m"`
}

type SourceConfig struct {
	Type         string        `yaml:"type" default:"polygon" validate:"oneof=polygon clickhouse"`
	LookbackDays int           `yaml:"lookback_days" default:"120" validate:"gte=30"`
	Concurrency  int           `yaml:"concurrency" default:"2" validate:"gte=1"`
	Timeout      time.Duration `yaml:"timeout" default:"15m"`
	Archive      bool          `yaml:"archive"` // also store fetched bars in ClickHouse
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"pulseforge"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"daily_bars"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	MaxOpenConns     int           `yaml:"max_open_conns" default:"5"`
	MaxIdleConns     int           `yaml:"max_idle_conns" default:"2"`
}

type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" default:"10"`
	Prefix   string `yaml:"prefix" default:"pulseforge"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic" default:"pulseforge.artifacts"`
	Compression  string        `yaml:"compression" default:"gzip"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	BatchBytes   int           `yaml:"batch_bytes" default:"4194304"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

// UniverseConfig lists every instrument the pipeline fetches.
type UniverseConfig struct {
	Benchmark models.Instrument   `yaml:"benchmark"`
	VIX       models.Instrument   `yaml:"vix"`
	Symbols   []models.Instrument `yaml:"symbols" validate:"dive"`
	Sectors   []models.Instrument `yaml:"sectors" validate:"dive"`
	Watchlist []models.Instrument `yaml:"watchlist" validate:"dive"`
	Metrics   []models.Instrument `yaml:"metrics" validate:"dive"`
}

type OutputConfig struct {
	DataDir     string      `yaml:"data_dir" default:"data"`
	Cache       CacheConfig `yaml:"cache"`
	Kafka       bool        `yaml:"kafka"` // publish artifacts to kafka.topic
	Stream      bool        `yaml:"stream" default:"true"`
	StaticNotes []string    `yaml:"static_notes"`
}

type CacheConfig struct {
	Backend   string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	TTL       time.Duration `yaml:"ttl" default:"168h"`
	MaxSize   int           `yaml:"max_size" default:"1000"`
	MemoryTTL time.Duration `yaml:"memory_ttl" default:"1m"`
}

type LogCollectorConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Topic          string        `yaml:"topic" default:"pulseforge.logs"`
	Interval       time.Duration `yaml:"interval" default:"30s"`
	CountThreshold int           `yaml:"count_threshold" default:"100"`
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env files (missing ones are fine), then the YAML file,
// then applies environment overrides before validating.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	c, err := Defaults()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Defaults returns a config with every default tag applied.
func Defaults() (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("PULSE_ENV", &c.Environment)
	str("PULSE_MODE", &c.Mode)
	str("LOG_LEVEL", &c.Logger.Level)
	str("POLYGON_API_KEY", &c.Polygon.APIKey)
	str("FINNHUB_API_KEY", &c.Finnhub.APIKey)
	str("SOURCE_TYPE", &c.Source.Type)
	str("DATA_DIR", &c.Output.DataDir)
	str("CACHE_BACKEND", &c.Output.Cache.Backend)
	str("CLICKHOUSE_HOST", &c.ClickHouse.Host)
	str("CLICKHOUSE_USER", &c.ClickHouse.User)
	str("CLICKHOUSE_PASSWORD", &c.ClickHouse.Password)
	str("REDIS_HOST", &c.Redis.Host)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("SCHEDULE_CRON", &c.Schedule.Cron)
	str("SCHEDULE_TIMEZONE", &c.Schedule.Timezone)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	list("CORS_ORIGINS", &c.Server.CORSOrigins)

	if v, ok := lookup("SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Redis.Host = host
		if found {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("REDIS_ADDR: %w", err)
			}
			c.Redis.Port = p
		}
	}
	return nil
}

// Validate checks struct tags, the engine thresholds and cross-field requirements.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	var errs []error
	if c.Universe.Benchmark.Symbol != c.Engine.BenchmarkSymbol {
		errs = append(errs, fmt.Errorf("universe.benchmark %q must match engine.benchmark_symbol %q",
			c.Universe.Benchmark.Symbol, c.Engine.BenchmarkSymbol))
	}
	if c.Universe.VIX.Symbol != c.Engine.VIXSymbol {
		errs = append(errs, fmt.Errorf("universe.vix %q must match engine.vix_symbol %q",
			c.Universe.VIX.Symbol, c.Engine.VIXSymbol))
	}
	switch c.Source.Type {
	case SourcePolygon:
		if c.Polygon.APIKey == "" {
			errs = append(errs, errors.New("polygon.api_key is required for source polygon"))
		}
	case SourceClickHouse:
		if c.ClickHouse.Host == "" {
			errs = append(errs, errors.New("clickhouse.host is required for source clickhouse"))
		}
	}
	if c.Source.Archive && c.ClickHouse.Host == "" {
		errs = append(errs, errors.New("clickhouse.host is required when source.archive is set"))
	}
	if (c.Output.Kafka || c.LogCollector.Enabled) && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required for kafka output or log collection"))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
