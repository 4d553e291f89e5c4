// Package store keeps a roll log of board snapshots in SQLite or Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/mcdev12/smartcatan/go/internal/dbconfig"
	"github.com/mcdev12/smartcatan/go/internal/sqlutil"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"

	DefaultSQLitePath = "smartcatan.db"
	DefaultRetention  = 1000
)

var (
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrStoreClosed   = errors.New("store is closed")
)

// Config selects and configures the backing database.
type Config struct {
	Driver     string          `yaml:"driver"`
	SQLitePath string          `yaml:"sqlite_path"`
	Postgres   dbconfig.Config `yaml:"postgres"`
	Retention  int             `yaml:"retention"`
}

func DefaultConfig() Config {
	return Config{
		Driver:     DriverSQLite,
		SQLitePath: DefaultSQLitePath,
		Postgres:   dbconfig.Default(),
		Retention:  DefaultRetention,
	}
}

// Record is one logged snapshot.
type Record struct {
	ID            uuid.UUID       `json:"id"`
	Generation    uint64          `json:"generation"`
	Source        string          `json:"source"`
	Mode          string          `json:"mode"`
	Active        bool            `json:"active"`
	SelectedValue int             `json:"selectedValue"`
	Snapshot      json.RawMessage `json:"snapshot,omitempty"`
	RecordedAt    time.Time       `json:"recordedAt"`
}

type Store struct {
	db        *sql.DB
	dialect   dialect
	retention int
	clock     clockwork.Clock
	closed    atomic.Bool
}

type Option func(*Store)

func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, cfg.Retention, opts...)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.Postgres.DSN(), cfg.Retention, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// OpenSQLite opens a file database, or an in-memory one for ":memory:".
func OpenSQLite(ctx context.Context, path string, retention int, opts ...Option) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return newStore(ctx, db, sqliteDialect{}, retention, opts)
}

// OpenPostgres connects with lib/pq.
func OpenPostgres(ctx context.Context, dsn string, retention int, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	return newStore(ctx, db, postgresDialect{}, retention, opts)
}

func newStore(ctx context.Context, db *sql.DB, d dialect, retention int, opts []Option) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &Store{
		db:        db,
		dialect:   d,
		retention: retention,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	log.Info().Str("driver", d.name()).Int("retention", retention).Msg("connected to history store")
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil || s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Name identifies the store in health reports.
func (s *Store) Name() string { return "store" }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Observe records changes that moved the selected value or started or
// ended a session. Other changes are ignored.
func (s *Store) Observe(ctx context.Context, change synchronizer.Change) error {
	if !change.SelectedValueChanged() && !change.SessionChanged() {
		return nil
	}

	doc, err := json.Marshal(change.Current)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	recordedAt := change.At
	if recordedAt.IsZero() {
		recordedAt = s.clock.Now()
	}
	rec := Record{
		ID:            uuid.New(),
		Generation:    change.Generation,
		Source:        string(change.Source),
		Mode:          change.Current.Board.Mode.String(),
		Active:        change.Current.Session.Active,
		SelectedValue: change.Current.Session.SelectedValue,
		Snapshot:      doc,
		RecordedAt:    recordedAt,
	}
	return s.Insert(ctx, rec)
}

// Insert appends a record and prunes the log down to the retention limit.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	insert := s.dialect.rebind(`INSERT INTO board_history
		(id, generation, source, mode, active, selected_value, snapshot, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	prune := s.dialect.rebind(`DELETE FROM board_history WHERE seq <= (
		SELECT seq FROM board_history ORDER BY seq DESC LIMIT 1 OFFSET ?)`)

	err := sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert,
			rec.ID,
			int64(rec.Generation),
			rec.Source,
			rec.Mode,
			s.dialect.boolArg(rec.Active),
			rec.SelectedValue,
			s.dialect.snapshotArg(rec.Snapshot),
			sqlutil.ToUnixMillis(rec.RecordedAt),
		); err != nil {
			return fmt.Errorf("failed to insert history record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, prune, s.retention); err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("record_id", rec.ID.String()).
		Str("source", rec.Source).
		Int("selected", rec.SelectedValue).
		Msg("recorded board snapshot")
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	query := s.dialect.rebind(`SELECT id, generation, source, mode, active, selected_value, snapshot, recorded_at
		FROM board_history ORDER BY seq DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			generation int64
			snapshot   sql.NullString
			recordedAt int64
		)
		if err := rows.Scan(
			&rec.ID,
			&generation,
			&rec.Source,
			&rec.Mode,
			&rec.Active,
			&rec.SelectedValue,
			&snapshot,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		rec.Generation = uint64(generation)
		rec.Snapshot = sqlutil.FromSqlBytes(snapshot)
		rec.RecordedAt = sqlutil.FromUnixMillis(recordedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}
