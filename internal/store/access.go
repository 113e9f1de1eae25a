package store

import (
	"context"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// reads go straight to the connection pool.
func (s *Store) reader() ops {
	return ops{q: s.db, store: s, compiler: s.compiler}
}

// GetRaw returns the record under key, or nil if there is none.
func (s *Store) GetRaw(ctx context.Context, key string) (*Record, error) {
	return s.reader().getRaw(ctx, key)
}

// Contains reports whether a record exists under key.
func (s *Store) Contains(ctx context.Context, key string) (bool, error) {
	return s.reader().contains(ctx, key)
}

// Count returns the number of records matching req, honoring its range.
func (s *Store) Count(ctx context.Context, req queryir.Request) (int, error) {
	return s.reader().count(ctx, req)
}

// FetchAllRaw returns the records matching req in request order.
func (s *Store) FetchAllRaw(ctx context.Context, req queryir.Request) ([]Record, error) {
	return s.reader().fetchAll(ctx, req)
}

// FetchKeys returns the keys matching req in request order.
func (s *Store) FetchKeys(ctx context.Context, req queryir.Request) ([]string, error) {
	return s.reader().fetchKeys(ctx, req)
}

// GetEntity decodes the record under key through the registry.
// Returns (nil, nil) if there is none and *DecodeError if it cannot be decoded.
func (s *Store) GetEntity(ctx context.Context, key string) (entity.Entity, error) {
	return s.reader().getEntity(ctx, key)
}

// Put stores value under key in its own transaction.
func (s *Store) Put(ctx context.Context, key string, value []byte, opts ...PutOption) error {
	return s.Transaction(ctx, func(tx *Tx) error {
		return tx.Put(ctx, key, value, opts...)
	})
}

// PutEntity stores e under its key in its own transaction.
func (s *Store) PutEntity(ctx context.Context, e entity.Entity, opts ...PutOption) error {
	return s.Transaction(ctx, func(tx *Tx) error {
		return tx.PutEntity(ctx, e, opts...)
	})
}

// Remove deletes key in its own transaction. Reports whether it existed.
func (s *Store) Remove(ctx context.Context, key string) (bool, error) {
	var removed bool
	err := s.Transaction(ctx, func(tx *Tx) error {
		var err error
		removed, err = tx.Remove(ctx, key)
		return err
	})
	return removed, err
}

// RemoveAll deletes every record matching req in its own transaction.
func (s *Store) RemoveAll(ctx context.Context, req queryir.Request) (int, error) {
	var n int
	err := s.Transaction(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.RemoveAll(ctx, req)
		return err
	})
	return n, err
}

var _ Transactor = (*Store)(nil)
