// Package journal persists recovery events in SQLite so recovery behaviour
// can be inspected after a session.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livefir/anchor"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its configuration in package state.
var gooseMu sync.Mutex

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal is closed")

// Entry is one recorded recovery.
type Entry struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	Outcome       string    `json:"outcome"`
	AncestorIndex int       `json:"ancestor_index"`
	Descended     int       `json:"descended"`
	Depth         int       `json:"depth"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// SummaryRow counts recoveries for one kind and outcome.
type SummaryRow struct {
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Count   int64  `json:"count"`
}

// Journal is a SQLite-backed recovery log. It is safe for concurrent use.
type Journal struct {
	db     *sql.DB
	closed atomic.Bool
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger for write failures reported by Observer.
func WithLogger(logger *zap.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// Open opens or creates the journal at path and applies pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" journals on one database
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{
		db:     db,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}

// Record appends e to the journal. An empty event name is replaced by name.
func (j *Journal) Record(ctx context.Context, name string, e anchor.Event) error {
	if j.closed.Load() {
		return ErrClosed
	}
	if e.Name != "" {
		name = e.Name
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO recoveries (name, kind, outcome, ancestor_index, descended, depth, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, e.Kind.String(), e.Outcome.String(), e.AncestorIndex, e.Descended, e.Depth, j.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record recovery: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. A limit of zero or
// less returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, name, kind, outcome, ancestor_index, descended, depth, recorded_at
		 FROM recoveries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recoveries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Kind, &e.Outcome, &e.AncestorIndex, &e.Descended, &e.Depth, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recovery: %w", err)
		}
		e.RecordedAt = time.Unix(0, recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary counts entries per kind and outcome.
func (j *Journal) Summary(ctx context.Context) ([]SummaryRow, error) {
	if j.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT kind, outcome, COUNT(*) FROM recoveries
		 GROUP BY kind, outcome ORDER BY kind, outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize recoveries: %w", err)
	}
	defer rows.Close()

	var summary []SummaryRow
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.Kind, &row.Outcome, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// Observer adapts the journal to anchor.Observer. Events without a name are
// recorded under name. Write failures are logged and never reach the reader
// of the strategy.
func (j *Journal) Observer(ctx context.Context, name string) anchor.Observer {
	return anchor.ObserverFunc(func(e anchor.Event) {
		if err := j.Record(ctx, name, e); err != nil {
			j.logger.Warn("failed to journal recovery",
				zap.String("name", name),
				zap.Stringer("outcome", e.Outcome),
				zap.Error(err))
		}
	})
}
