package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - key_value, key_value_fts, secondary_index, delete trigger
// 2 - Added (idx, value) index on secondary_index for filtered and ordered reads
const currentSchemaVersion = 2

// DefaultMaxReaders is the reader connection count for file databases.
const DefaultMaxReaders = 4

// Clock supplies modification timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Store is the key-value record store.
// Uses SQLite with WAL mode for concurrent read access.
//
// Store is safe for concurrent use. Writes made directly on the Store run in
// their own transaction; use Transaction to group writes atomically.
type Store struct {
	db       *sql.DB
	registry *entity.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	clock    Clock
	compiler *querysql.Compiler

	// writeMu serializes write transactions (single writer).
	writeMu sync.Mutex

	feed        *changeFeed
	lifecycleMu sync.Mutex
	closeOnce   sync.Once
	closed      chan struct{}
	observers   sync.WaitGroup
}

type options struct {
	driver       string
	registry     *entity.Registry
	logger       *slog.Logger
	metrics      *metrics.Metrics
	clock        Clock
	maxReaders   int
	pollInterval time.Duration
}

// Option configures Open.
type Option func(*options)

// WithDriver selects the database/sql driver (DefaultDriver by default).
func WithDriver(name string) Option {
	return func(o *options) { o.driver = name }
}

// WithRegistry sets the entity registry used by GetEntity and migrations.
func WithRegistry(r *entity.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock sets the clock stamping modified_at.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMaxReaders sets how many connections may read concurrently with the
// writer. Ignored for in-memory databases, which are limited to one
// connection.
func WithMaxReaders(n int) Option {
	return func(o *options) { o.maxReaders = n }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		driver:     DefaultDriver,
		maxReaders: DefaultMaxReaders,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.clock == nil {
		o.clock = systemClock{}
	}

	dsn, err := dsnFor(o.driver, path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(o.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	conns := 1 + o.maxReaders
	memory := path == ":memory:"
	if memory || o.maxReaders < 0 {
		conns = 1
	}
	poll := o.pollInterval > 0 && !memory
	if poll {
		conns++
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	o.logger.Debug("store opened", "path", path, "driver", o.driver, "connections", conns)

	s := &Store{
		db:       db,
		registry: o.registry,
		logger:   o.logger,
		metrics:  o.metrics,
		clock:    o.clock,
		compiler: querysql.NewCompiler(),
		feed:     newChangeFeed(o.metrics),
		closed:   make(chan struct{}),
	}
	if poll {
		if err := s.startPolling(o.pollInterval); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close stops every observer and closes the database.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		s.lifecycleMu.Lock()
		close(s.closed)
		s.lifecycleMu.Unlock()
		s.observers.Wait()
		err = s.db.Close()
	})
	return err
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Registry returns the entity registry, which may be nil.
func (s *Store) Registry() *entity.Registry {
	return s.registry
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Metrics returns the store's metrics sink, which may be nil.
func (s *Store) Metrics() *metrics.Metrics {
	return s.metrics
}

// applyPragmas sets required SQLite configuration on the first connection.
// The DSN applies the same pragmas to every later connection.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV2 adds the (idx, value) index used by index filters and ordering.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_secondary_index_value
		ON secondary_index(idx, value, record_key)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRowContext(ctx, query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
