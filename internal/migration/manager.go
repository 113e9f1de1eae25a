package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

// DefaultMaxRenameAttempts bounds how often an entity may pick a new key
// under Rename before the fallback applies.
const DefaultMaxRenameAttempts = 3

// Options describes one run.
type Options struct {
	// Scope selects the records to visit. The zero value visits every record.
	Scope queryir.Request

	// Visitors run in order on every record. All of them always run.
	Visitors []Visitor

	ConflictResolution ConflictResolution

	// KeepOriginalOnKeyChange leaves the original record in place when an
	// entity is written under a new key, turning a move into a copy.
	KeepOriginalOnKeyChange bool
}

// Result reports what a run did. All keys are the keys records had before the
// run.
type Result struct {
	// Saved lists records whose changed entity was written.
	Saved []string
	// Removed lists records dropped by the Remove resolution.
	Removed []string
	// Skipped lists records left untouched by the Skip resolution.
	Skipped []string
	// Undecodable lists records no registered type owns.
	Undecodable []string
	// Failed lists records whose decode or write failed.
	Failed []string
	// KeyChanges maps the original key of every saved record that moved to
	// the key it was written under.
	KeyChanges map[string]string
}

// Manager runs visitors over stored entities.
type Manager struct {
	registry          *entity.Registry
	logger            *slog.Logger
	metrics           *metrics.Metrics
	maxRenameAttempts int
}

// Option configures a Manager.
type Option func(*Manager)

// WithRegistry overrides the registry used to decode records. By default the
// registry of the store passed to Run is used.
func WithRegistry(r *entity.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithMaxRenameAttempts sets the rename retry bound.
//
// Default: 3 (DefaultMaxRenameAttempts)
func WithMaxRenameAttempts(n int) Option {
	return func(m *Manager) { m.maxRenameAttempts = n }
}

// New creates a Manager.
func New(opts ...Option) *Manager {
	m := &Manager{maxRenameAttempts: DefaultMaxRenameAttempts}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Run visits every record in opts.Scope inside one transaction of tr.
//
// The keys in scope are read once up front. Per-record problems (no
// registered type, undecodable value, failed write) are logged and recorded
// in the Result; they do not fail the run. Run returns an error only if the
// options are invalid, the scope cannot be read, or ctx is done, and in that
// case nothing is written.
func (m *Manager) Run(ctx context.Context, tr store.Transactor, opts Options) (Result, error) {
	if err := validateResolution(opts.ConflictResolution); err != nil {
		return Result{}, err
	}
	if err := queryir.Validate(opts.Scope); err != nil {
		return Result{}, fmt.Errorf("migration scope: %w", err)
	}

	registry := m.registry
	if registry == nil {
		registry = tr.Registry()
	}
	if registry == nil {
		return Result{}, errors.New("migration: no entity registry")
	}

	var result Result
	err := tr.Transaction(ctx, func(tx *store.Tx) error {
		result = Result{KeyChanges: map[string]string{}}

		keys, err := tx.FetchKeys(ctx, opts.Scope)
		if err != nil {
			return fmt.Errorf("snapshot keys: %w", err)
		}

		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			m.visit(ctx, tx, registry, key, opts, &result)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	m.logger.Debug("migration finished",
		"saved", len(result.Saved),
		"removed", len(result.Removed),
		"skipped", len(result.Skipped),
		"undecodable", len(result.Undecodable),
		"failed", len(result.Failed))
	return result, nil
}

// visit processes one record and records the outcome in result.
func (m *Manager) visit(ctx context.Context, tx *store.Tx, registry *entity.Registry, key string, opts Options, result *Result) {
	rec, err := tx.GetRaw(ctx, key)
	if err != nil {
		m.fail(result, key, err)
		return
	}
	if rec == nil {
		// removed earlier in this run
		return
	}

	e, err := registry.Decode(key, rec.Value)
	if errors.Is(err, entity.ErrUnknownType) {
		m.logger.Warn("record skipped, no registered type", "key", key)
		result.Undecodable = append(result.Undecodable, key)
		m.metrics.RecordMigration(metrics.OutcomeSkipped)
		return
	}
	if err != nil {
		m.metrics.RecordDecodeFailure()
		m.fail(result, key, err)
		return
	}

	changed := false
	for _, v := range opts.Visitors {
		changed = v.Visit(e) || changed
	}
	if !changed {
		return
	}

	var o outcome
	err = tx.Transaction(ctx, func(sp *store.Tx) error {
		var err error
		o, err = m.write(ctx, sp, key, e, opts)
		return err
	})
	if err != nil {
		m.fail(result, key, err)
		return
	}

	switch o.kind {
	case metrics.OutcomeSaved, metrics.OutcomeRenamed:
		result.Saved = append(result.Saved, key)
		if o.newKey != key {
			result.KeyChanges[key] = o.newKey
		}
	case metrics.OutcomeRemoved:
		result.Removed = append(result.Removed, key)
	case metrics.OutcomeSkipped:
		result.Skipped = append(result.Skipped, key)
	}
	m.metrics.RecordMigration(o.kind)
	m.logger.Debug("record migrated", "key", key, "new_key", o.newKey, "outcome", o.kind)
}

type outcome struct {
	kind   string
	newKey string
}

// write stores the visited entity e, originally under key, applying the
// conflict resolution when its new key is taken.
func (m *Manager) write(ctx context.Context, sp *store.Tx, key string, e entity.Entity, opts Options) (outcome, error) {
	newKey := e.RawKey()
	if newKey == key {
		if err := sp.PutEntity(ctx, e); err != nil {
			return outcome{}, err
		}
		return outcome{kind: metrics.OutcomeSaved, newKey: key}, nil
	}

	conflict, err := sp.Contains(ctx, newKey)
	if err != nil {
		return outcome{}, err
	}

	resolution := opts.ConflictResolution
	renamed := false
	if rename, ok := resolution.(Rename); ok && conflict {
		resolution = rename.Fallback
		if resolver, ok := e.(entity.KeyConflictResolver); ok {
			for attempt := 0; conflict && attempt < m.maxRenameAttempts; attempt++ {
				resolver.ResolveKeyConflict()
				newKey = e.RawKey()
				if conflict, err = sp.Contains(ctx, newKey); err != nil {
					return outcome{}, err
				}
			}
			renamed = !conflict
		}
	}

	if conflict {
		switch resolution.(type) {
		case Remove:
			if _, err := sp.Remove(ctx, key); err != nil {
				return outcome{}, err
			}
			return outcome{kind: metrics.OutcomeRemoved, newKey: key}, nil
		case Skip:
			return outcome{kind: metrics.OutcomeSkipped, newKey: key}, nil
		}
		// Overwrite
	}

	if err := sp.PutEntity(ctx, e); err != nil {
		return outcome{}, err
	}
	if !opts.KeepOriginalOnKeyChange {
		if _, err := sp.Remove(ctx, key); err != nil {
			return outcome{}, err
		}
	}

	kind := metrics.OutcomeSaved
	if renamed {
		kind = metrics.OutcomeRenamed
	}
	return outcome{kind: kind, newKey: newKey}, nil
}

func (m *Manager) fail(result *Result, key string, err error) {
	m.logger.Error("record migration failed", "key", key, "error", err)
	result.Failed = append(result.Failed, key)
	m.metrics.RecordMigration(metrics.OutcomeFailed)
}
