package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PulseForge/internal/domain/models"
	domrepo "PulseForge/internal/domain/repository"
	pkgch "PulseForge/pkg/clickhouse"
	applogger "PulseForge/pkg/logger"
	"PulseForge/pkg/util"
)

const DefaultBarsTable = "daily_bars"

// insertChunk bounds the rows of one multi-row INSERT.
const insertChunk = 2000

// CHObservationSource replays and archives daily bars in ClickHouse.
// Re-inserted days collapse on (symbol, date) through ReplacingMergeTree.
type CHObservationSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var (
	_ domrepo.ObservationSource  = (*CHObservationSource)(nil)
	_ domrepo.ObservationArchive = (*CHObservationSource)(nil)
)

func NewCHObservationSource(ch *pkgch.Client, table string, l *applogger.Logger) *CHObservationSource {
	if table == "" {
		table = DefaultBarsTable
	}
	return &CHObservationSource{db: ch.DB(), table: table, l: l, now: time.Now}
}

// SchemaStatements returns the DDL for the bars table.
func (s *CHObservationSource) SchemaStatements() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol      LowCardinality(String),
            date        Date,
            close       Float64,
            volume      Float64,
            implied_vol Nullable(Float64),
            ingested_at DateTime
        )
        ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (symbol, date)
    `, s.table)}
}

func (s *CHObservationSource) Init(ctx context.Context) error {
	for _, stmt := range s.SchemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

// LoadRange reads inst's bars stored under the engine symbol, oldest first.
func (s *CHObservationSource) LoadRange(ctx context.Context, inst models.Instrument, from, to time.Time) ([]models.Observation, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT symbol, date, close, volume, implied_vol
        FROM %s FINAL
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, inst.Symbol, util.DateOf(from), util.DateOf(to))
	if err != nil {
		s.l.Error("clickhouse load_range query error",
			applogger.String("table", s.table),
			applogger.String("symbol", inst.Symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load range %s: %w", inst.Symbol, err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 256)
	for rows.Next() {
		var (
			o  models.Observation
			iv sql.NullFloat64
		)
		if err := rows.Scan(&o.Symbol, &o.Date, &o.Close, &o.Volume, &iv); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		o.Date = util.DateOf(o.Date)
		if iv.Valid {
			v := iv.Float64
			o.ImpliedVolatility = &v
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse load_range ok",
		applogger.String("symbol", inst.Symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// StoreBatch inserts obs in chunks of multi-row VALUES.
func (s *CHObservationSource) StoreBatch(ctx context.Context, obs []models.Observation) error {
	ingested := s.now().UTC().Truncate(time.Second)
	for start := 0; start < len(obs); start += insertChunk {
		end := start + insertChunk
		if end > len(obs) {
			end = len(obs)
		}
		q, args := s.insertQuery(obs[start:end], ingested)
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

func (s *CHObservationSource) insertQuery(obs []models.Observation, ingested time.Time) (string, []interface{}) {
	values := make([]string, 0, len(obs))
	args := make([]interface{}, 0, len(obs)*6)
	for _, o := range obs {
		if o.Symbol == "" || o.Date.IsZero() {
			continue
		}
		var iv interface{}
		if o.ImpliedVolatility != nil {
			iv = *o.ImpliedVolatility
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, o.Symbol, util.DateOf(o.Date), o.Close, o.Volume, iv, ingested)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, close, volume, implied_vol, ingested_at) VALUES %s",
		s.table, strings.Join(values, ","))
	return q, args
}

func (s *CHObservationSource) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHObservationSource) Close() error { return nil }
