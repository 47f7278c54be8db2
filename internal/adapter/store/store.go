// Package store persists hydrology records in SQLite (modernc.org/sqlite) or
// Postgres (pgx). Scalar fields get their own columns; list and map fields are
// stored as JSON text so both engines share one schema.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect captures the few places SQLite and Postgres differ.
type dialect struct {
	driver     string
	primaryKey string
	// dollar placeholders ($1, $2, ...) instead of "?".
	dollar bool
}

var dialects = map[string]dialect{
	"sqlite": {driver: "sqlite", primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT"},
	"pgx":    {driver: "pgx", primaryKey: "BIGSERIAL PRIMARY KEY", dollar: true},
}

// Store is the record repository used by the hydrology service.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the database, retrying the initial ping with backoff until
// ctx expires, then creates any missing tables.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// One writer at a time; SQLite serializes writes anyway and this
		// keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	backoff := 200 * time.Millisecond
	for {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		logger.Warn("database not reachable, retrying", "driver", driver, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			db.Close()
			return nil, fmt.Errorf("ping %s database: %w", driver, err)
		}
		backoff = retry.NextBackoff(backoff, 5*time.Second)
	}

	s := &Store{db: db, dialect: d, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", driver)
	return s, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	pk := s.dialect.primaryKey
	statements := []string{
		`CREATE TABLE IF NOT EXISTS idf_tables (
			id ` + pk + `,
			project_id BIGINT NOT NULL,
			location_name TEXT NOT NULL,
			lon DOUBLE PRECISION,
			lat DOUBLE PRECISION,
			formatted_address TEXT NOT NULL DEFAULT '',
			geo_source TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			durations_in_mins TEXT NOT NULL DEFAULT 'null',
			depths TEXT NOT NULL DEFAULT '{}',
			original_units TEXT NOT NULL,
			saved_units TEXT NOT NULL,
			units_converted INTEGER NOT NULL DEFAULT 0,
			selected_durations TEXT NOT NULL DEFAULT 'null',
			selected_frequencies TEXT NOT NULL DEFAULT 'null',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_idf_tables_project ON idf_tables(project_id)`,
		`CREATE TABLE IF NOT EXISTS temporal_patterns (
			id ` + pk + `,
			project_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			pattern TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_temporal_patterns_project ON temporal_patterns(project_id)`,
		`CREATE TABLE IF NOT EXISTS time_series (
			id ` + pk + `,
			project_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			location_name TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			timezone TEXT NOT NULL,
			data TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT 'null',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_time_series_project ON time_series(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_time_series_timezone ON time_series(timezone)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders for drivers that number them.
func (s *Store) rebind(query string) string {
	if !s.dialect.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

// insert runs an INSERT ... RETURNING id statement.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := s.queryRow(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// affectedOne maps a zero-row UPDATE or DELETE to errNoRows.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, dst any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
