package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// Tx is a write transaction. It is only valid inside the function passed to
// Transaction and must not be used from other goroutines.
type Tx struct {
	ops
	tx    *sql.Tx
	depth int
	seq   *int
	dirty *bool
}

// Transaction runs fn in a write transaction. The transaction commits if fn
// returns nil and rolls back otherwise. Observers are notified after a commit
// that wrote anything.
//
// Write transactions are serialized. fn must not call write methods on the
// Store itself; use tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	committed := false
	defer func() {
		s.metrics.RecordTransaction(committed, time.Since(start))
	}()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback() // no-op after commit

	seq := 0
	dirty := false
	tx := &Tx{
		ops:   ops{q: sqlTx, store: s, compiler: s.compiler},
		tx:    sqlTx,
		seq:   &seq,
		dirty: &dirty,
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true

	if dirty {
		s.feed.publish()
	}
	return nil
}

// Transaction runs fn inside a savepoint of tx. If fn fails, only its writes
// are rolled back and the error is returned; the outer transaction stays
// usable. Nothing is durable until the outermost transaction commits.
func (tx *Tx) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	*tx.seq++
	name := fmt.Sprintf("sp_%d_%d", tx.depth+1, *tx.seq)

	if _, err := tx.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	inner := &Tx{ops: tx.ops, tx: tx.tx, depth: tx.depth + 1, seq: tx.seq, dirty: tx.dirty}
	if err := fn(inner); err != nil {
		if _, rbErr := tx.tx.ExecContext(ctx, "ROLLBACK TO "+name); rbErr != nil {
			return fmt.Errorf("rollback savepoint after %v: %w", err, rbErr)
		}
		if _, relErr := tx.tx.ExecContext(ctx, "RELEASE "+name); relErr != nil {
			return fmt.Errorf("release savepoint after %v: %w", err, relErr)
		}
		return err
	}

	if _, err := tx.tx.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// Registry returns the store's entity registry.
func (tx *Tx) Registry() *entity.Registry { return tx.store.registry }

// Reads

func (tx *Tx) GetRaw(ctx context.Context, key string) (*Record, error) {
	return tx.getRaw(ctx, key)
}

func (tx *Tx) Contains(ctx context.Context, key string) (bool, error) {
	return tx.contains(ctx, key)
}

func (tx *Tx) Count(ctx context.Context, req queryir.Request) (int, error) {
	return tx.count(ctx, req)
}

func (tx *Tx) FetchAllRaw(ctx context.Context, req queryir.Request) ([]Record, error) {
	return tx.fetchAll(ctx, req)
}

func (tx *Tx) FetchKeys(ctx context.Context, req queryir.Request) ([]string, error) {
	return tx.fetchKeys(ctx, req)
}

func (tx *Tx) GetEntity(ctx context.Context, key string) (entity.Entity, error) {
	return tx.getEntity(ctx, key)
}

// Writes

// Put stores value under key. Without options the record gets no derived
// rows; any existing ones are removed.
func (tx *Tx) Put(ctx context.Context, key string, value []byte, opts ...PutOption) error {
	if value == nil {
		value = []byte{}
	}
	*tx.dirty = true
	return tx.put(ctx, key, value, resolveDerived(nil, opts))
}

// PutEntity encodes e and stores it under its key, deriving full-text and
// index rows from its capabilities unless opts override them.
func (tx *Tx) PutEntity(ctx context.Context, e entity.Entity, opts ...PutOption) error {
	data, err := entity.Encode(e)
	if err != nil {
		return err
	}
	*tx.dirty = true
	return tx.put(ctx, e.RawKey(), data, resolveDerived(e, opts))
}

func (tx *Tx) Remove(ctx context.Context, key string) (bool, error) {
	removed, err := tx.remove(ctx, key)
	if removed {
		*tx.dirty = true
	}
	return removed, err
}

func (tx *Tx) RemoveAll(ctx context.Context, req queryir.Request) (int, error) {
	n, err := tx.removeAll(ctx, req)
	if n > 0 {
		*tx.dirty = true
	}
	return n, err
}

var _ Transactor = (*Tx)(nil)
