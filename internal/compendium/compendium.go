package compendium

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/metrics"
	"github.com/Thomvis/Construct-sub002/internal/migration"
	"github.com/Thomvis/Construct-sub002/internal/store"
)

// Types returns the entity types owned by this package, for building a
// registry.
func Types() []entity.Type {
	return []entity.Type{
		entity.TypeOf("realm", func() *Realm { return &Realm{} }),
		entity.TypeOf("document", func() *SourceDocument { return &SourceDocument{} }),
		entity.TypeOf("entry", func() *Entry { return &Entry{} }),
		entity.TypeOf("importjob", func() *ImportJob { return &ImportJob{} }),
	}
}

// Compendium reads and writes entries and their realms and documents.
type Compendium struct {
	store      *store.Store
	migrations *migration.Manager
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates a Compendium over s. The store's registry must include Types()
// and every ItemReferenceHolder type whose references should follow moved
// entries.
func New(s *store.Store) *Compendium {
	return &Compendium{
		store: s,
		migrations: migration.New(
			migration.WithLogger(s.Logger()),
			migration.WithMetrics(s.Metrics()),
		),
		logger:  s.Logger(),
		metrics: s.Metrics(),
	}
}

// Store returns the underlying store.
func (c *Compendium) Store() *store.Store { return c.store }

// Get returns the entry under key, or nil if there is none.
func (c *Compendium) Get(ctx context.Context, key string) (*Entry, error) {
	e, ok, err := store.Get[Entry](ctx, c.store, key)
	if err != nil || !ok {
		return nil, err
	}
	return &e, nil
}

// Put stores e under its key. Fails with ErrInvalidID when a component of
// the key is empty or contains the key separator.
func (c *Compendium) Put(ctx context.Context, e *Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	return c.store.PutEntity(ctx, e)
}

// Contains reports whether an entry exists under key.
func (c *Compendium) Contains(ctx context.Context, key string) (bool, error) {
	return c.store.Contains(ctx, key)
}

// Fetch returns the entries matching r.
func (c *Compendium) Fetch(ctx context.Context, r FetchRequest) ([]Entry, error) {
	req, err := r.Request()
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return store.FetchAll[Entry](ctx, c.store, req)
}

// FetchCatching is Fetch reporting undecodable entries individually.
func (c *Compendium) FetchCatching(ctx context.Context, r FetchRequest) ([]store.Result[Entry], error) {
	req, err := r.Request()
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}
	return store.FetchAllCatching[Entry](ctx, c.store, req)
}

// FetchKeys returns the keys of the entries matching r.
func (c *Compendium) FetchKeys(ctx context.Context, r FetchRequest) ([]string, error) {
	req, err := r.Request()
	if err != nil {
		return nil, fmt.Errorf("fetch entry keys: %w", err)
	}
	return c.store.FetchKeys(ctx, req)
}

// Count returns the number of entries matching r.
func (c *Compendium) Count(ctx context.Context, r FetchRequest) (int, error) {
	req, err := r.Request()
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return c.store.Count(ctx, req)
}

// rewriteReferences points every reference to a key in changes at its new
// key, in every record that holds references.
func (c *Compendium) rewriteReferences(ctx context.Context, tx *store.Tx, changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}
	rewrite := func(key string) (string, bool) {
		next, ok := changes[key]
		return next, ok
	}
	res, err := c.migrations.Run(ctx, tx, migration.Options{
		Visitors: []migration.Visitor{migration.VisitorFunc(func(e entity.Entity) bool {
			holder, ok := e.(ItemReferenceHolder)
			return ok && holder.UpdateItemReferences(rewrite)
		})},
		ConflictResolution: migration.Skip{},
	})
	if err != nil {
		return fmt.Errorf("rewrite references: %w", err)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("rewrite references: %d records failed", len(res.Failed))
	}
	return nil
}
