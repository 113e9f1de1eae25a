package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
	"github.com/Thomvis/Construct-sub002/internal/querysql"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Reader is the read half of the store, implemented by *Store and *Tx.
type Reader interface {
	// GetRaw returns the record under key, or nil if there is none.
	GetRaw(ctx context.Context, key string) (*Record, error)
	Contains(ctx context.Context, key string) (bool, error)
	Count(ctx context.Context, req queryir.Request) (int, error)
	FetchAllRaw(ctx context.Context, req queryir.Request) ([]Record, error)
	FetchKeys(ctx context.Context, req queryir.Request) ([]string, error)
	// GetEntity decodes the record under key through the registry.
	// Returns (nil, nil) if there is none.
	GetEntity(ctx context.Context, key string) (entity.Entity, error)
}

// Writer is the write half of the store, implemented by *Store and *Tx.
type Writer interface {
	Put(ctx context.Context, key string, value []byte, opts ...PutOption) error
	PutEntity(ctx context.Context, e entity.Entity, opts ...PutOption) error
	// Remove deletes key and its derived rows. Reports whether it existed.
	Remove(ctx context.Context, key string) (bool, error)
	// RemoveAll deletes every record matching req. Returns the count removed.
	RemoveAll(ctx context.Context, req queryir.Request) (int, error)
}

// Transactor can read, write and open a (nested) transaction.
type Transactor interface {
	Reader
	Writer
	Transaction(ctx context.Context, fn func(tx *Tx) error) error
	Registry() *entity.Registry
}

// ops implements reads and writes over a querier. Store reads through the
// pool; Tx reads and writes through its transaction.
type ops struct {
	q        querier
	store    *Store
	compiler *querysql.Compiler
}

func (o ops) getRaw(ctx context.Context, key string) (*Record, error) {
	row := o.q.QueryRowContext(ctx, `
		SELECT key, modified_at, value
		FROM key_value
		WHERE key = ?
	`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return &rec, nil
}

func (o ops) contains(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := o.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM key_value WHERE key = ?)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("contains %q: %w", key, err)
	}
	return exists, nil
}

func (o ops) count(ctx context.Context, req queryir.Request) (int, error) {
	query, params, err := o.compiler.CompileCount(req)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	var n int
	if err := o.q.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// fetchAll returns matching records in request order.
// Returns an empty slice (not nil) if nothing matches.
func (o ops) fetchAll(ctx context.Context, req queryir.Request) ([]Record, error) {
	query, params, err := o.compiler.CompileSelect(req, querysql.ProjectRecords)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	rows, err := o.q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// fetchKeys returns matching keys in request order.
// Returns an empty slice (not nil) if nothing matches.
func (o ops) fetchKeys(ctx context.Context, req queryir.Request) ([]string, error) {
	query, params, err := o.compiler.CompileSelect(req, querysql.ProjectKeys)
	if err != nil {
		return nil, fmt.Errorf("fetch keys: %w", err)
	}

	rows, err := o.q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("fetch keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}

func (o ops) getEntity(ctx context.Context, key string) (entity.Entity, error) {
	rec, err := o.getRaw(ctx, key)
	if err != nil || rec == nil {
		return nil, err
	}
	return o.store.decodeEntity(*rec)
}

// put upserts a record and replaces its derived rows.
//
// ON CONFLICT DO UPDATE keeps the record's rowid stable, which is what ties it
// to its full-text row.
func (o ops) put(ctx context.Context, key string, value []byte, d derived) error {
	now := o.store.clock.Now().UnixMilli()

	_, err := o.q.ExecContext(ctx, `
		INSERT INTO key_value (key, modified_at, value)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			modified_at = excluded.modified_at,
			value = excluded.value
	`, key, now, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	var rowID int64
	err = o.q.QueryRowContext(ctx, `SELECT rowid FROM key_value WHERE key = ?`, key).Scan(&rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("put %q: %w", key, ErrRowIDUnavailable)
	}
	if err != nil {
		return fmt.Errorf("put %q: lookup rowid: %w", key, err)
	}

	if err := o.replaceFTS(ctx, rowID, d.fts); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	if err := o.replaceIndex(ctx, key, d.index); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}

	o.store.metrics.RecordWrite()
	return nil
}

func (o ops) replaceFTS(ctx context.Context, rowID int64, doc *entity.FTSDocument) error {
	if _, err := o.q.ExecContext(ctx, `DELETE FROM key_value_fts WHERE rowid = ?`, rowID); err != nil {
		return fmt.Errorf("clear fts: %w", err)
	}
	if doc == nil {
		return nil
	}

	title := norm.NFC.String(doc.Title)
	_, err := o.q.ExecContext(ctx, `
		INSERT INTO key_value_fts (rowid, title, subtitle, body, title_suffixes)
		VALUES (?, ?, ?, ?, ?)
	`, rowID, title, nfcPtr(doc.Subtitle), nfcPtr(doc.Body), titleSuffixes(title))
	if err != nil {
		return fmt.Errorf("insert fts: %w", err)
	}
	return nil
}

func (o ops) replaceIndex(ctx context.Context, key string, values entity.IndexValues) error {
	if _, err := o.q.ExecContext(ctx, `DELETE FROM secondary_index WHERE record_key = ?`, key); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	ids := make([]int, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		_, err := o.q.ExecContext(ctx, `
			INSERT INTO secondary_index (idx, value, record_key)
			VALUES (?, ?, ?)
		`, id, values[id], key)
		if err != nil {
			return fmt.Errorf("insert index %d: %w", id, err)
		}
	}
	return nil
}

func (o ops) remove(ctx context.Context, key string) (bool, error) {
	res, err := o.q.ExecContext(ctx, `DELETE FROM key_value WHERE key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("remove %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove %q: %w", key, err)
	}
	o.store.metrics.RecordRemovals(int(n))
	return n > 0, nil
}

func (o ops) removeAll(ctx context.Context, req queryir.Request) (int, error) {
	query, params, err := o.compiler.CompileDelete(req)
	if err != nil {
		return 0, fmt.Errorf("remove all: %w", err)
	}
	res, err := o.q.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, fmt.Errorf("remove all: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("remove all: %w", err)
	}
	o.store.metrics.RecordRemovals(int(n))
	return int(n), nil
}

// decodeEntity decodes rec through the registry, reporting failures as
// *DecodeError.
func (s *Store) decodeEntity(rec Record) (entity.Entity, error) {
	if s.registry == nil {
		return nil, &DecodeError{Key: rec.Key, Raw: rec.Value, Err: errors.New("store has no entity registry")}
	}
	e, err := s.registry.Decode(rec.Key, rec.Value)
	if err != nil {
		s.metrics.RecordDecodeFailure()
		return nil, &DecodeError{Key: rec.Key, Raw: rec.Value, Err: err}
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec        Record
		modifiedAt int64
	)
	if err := row.Scan(&rec.Key, &modifiedAt, &rec.Value); err != nil {
		return Record{}, err
	}
	rec.ModifiedAt = time.UnixMilli(modifiedAt).UTC()
	return rec, nil
}

func nfcPtr(s *string) any {
	if s == nil {
		return nil
	}
	return norm.NFC.String(*s)
}

// titleSuffixes returns every proper suffix of at least two characters of
// every word in title, so in-word terms ("bolt" in "Firebolt") match as
// token prefixes.
func titleSuffixes(title string) string {
	var out []string
	for _, word := range strings.Fields(title) {
		runes := []rune(word)
		for i := 1; i+2 <= len(runes); i++ {
			out = append(out, string(runes[i:]))
		}
	}
	return strings.Join(out, " ")
}
