package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/Thomvis/Construct-sub002/internal/canonical"
)

// DumpRecord is one key_value row.
type DumpRecord struct {
	Key        string `json:"key"`
	ModifiedAt int64  `json:"modified_at"`
	Value      string `json:"value"`
}

// DumpFTS is one key_value_fts row with its owning key.
type DumpFTS struct {
	Key           string  `json:"key"`
	Title         string  `json:"title"`
	Subtitle      *string `json:"subtitle,omitempty"`
	Body          *string `json:"body,omitempty"`
	TitleSuffixes string  `json:"title_suffixes"`
}

// DumpIndex is one secondary_index row.
type DumpIndex struct {
	Index int    `json:"idx"`
	Value string `json:"value"`
	Key   string `json:"record_key"`
}

// Dump is a complete, deterministically ordered copy of every table.
// Two stores with the same logical content produce equal dumps.
type Dump struct {
	Records []DumpRecord `json:"records"`
	FTS     []DumpFTS    `json:"fts"`
	Index   []DumpIndex  `json:"index"`
}

// Dump reads every record, full-text row and index row.
func (s *Store) Dump(ctx context.Context) (Dump, error) {
	d := Dump{Records: []DumpRecord{}, FTS: []DumpFTS{}, Index: []DumpIndex{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, modified_at, value
		FROM key_value
		ORDER BY key COLLATE BINARY ASC
	`)
	if err != nil {
		return Dump{}, fmt.Errorf("dump records: %w", err)
	}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return Dump{}, fmt.Errorf("dump records: %w", err)
		}
		d.Records = append(d.Records, DumpRecord{
			Key:        rec.Key,
			ModifiedAt: rec.ModifiedAt.UnixMilli(),
			Value:      dumpValue(rec.Value),
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dump{}, fmt.Errorf("dump records: %w", err)
	}

	// Orphaned full-text rows (no owning record) dump with an empty key.
	rows, err = s.db.QueryContext(ctx, `
		SELECT kv.key, f.title, f.subtitle, f.body, f.title_suffixes
		FROM key_value_fts AS f
		LEFT JOIN key_value AS kv ON kv.rowid = f.rowid
		ORDER BY kv.key COLLATE BINARY ASC, f.rowid ASC
	`)
	if err != nil {
		return Dump{}, fmt.Errorf("dump fts: %w", err)
	}
	for rows.Next() {
		var (
			key            sql.NullString
			title          sql.NullString
			subtitle, body sql.NullString
			suffixes       sql.NullString
		)
		if err := rows.Scan(&key, &title, &subtitle, &body, &suffixes); err != nil {
			rows.Close()
			return Dump{}, fmt.Errorf("dump fts: %w", err)
		}
		d.FTS = append(d.FTS, DumpFTS{
			Key:           key.String,
			Title:         title.String,
			Subtitle:      nullable(subtitle),
			Body:          nullable(body),
			TitleSuffixes: suffixes.String,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Dump{}, fmt.Errorf("dump fts: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT idx, value, record_key
		FROM secondary_index
		ORDER BY record_key COLLATE BINARY ASC, idx ASC
	`)
	if err != nil {
		return Dump{}, fmt.Errorf("dump index: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ix DumpIndex
		if err := rows.Scan(&ix.Index, &ix.Value, &ix.Key); err != nil {
			return Dump{}, fmt.Errorf("dump index: %w", err)
		}
		d.Index = append(d.Index, ix)
	}
	if err := rows.Err(); err != nil {
		return Dump{}, fmt.Errorf("dump index: %w", err)
	}

	return d, nil
}

// Digest returns the domain-separated SHA-256 of the store's canonical dump.
func (s *Store) Digest(ctx context.Context) (string, error) {
	d, err := s.Dump(ctx)
	if err != nil {
		return "", err
	}
	return d.Digest()
}

// Canonical returns the dump as canonical JSON.
func (d Dump) Canonical() ([]byte, error) {
	return canonical.Marshal(d.tree())
}

// Digest returns the domain-separated SHA-256 of the canonical dump.
func (d Dump) Digest() (string, error) {
	return canonical.Digest(canonical.DomainStoreDump, d.tree())
}

func (d Dump) tree() map[string]any {
	records := make([]any, 0, len(d.Records))
	for _, r := range d.Records {
		records = append(records, map[string]any{
			"key":         r.Key,
			"modified_at": r.ModifiedAt,
			"value":       r.Value,
		})
	}
	fts := make([]any, 0, len(d.FTS))
	for _, f := range d.FTS {
		fts = append(fts, map[string]any{
			"key":            f.Key,
			"title":          f.Title,
			"subtitle":       deref(f.Subtitle),
			"body":           deref(f.Body),
			"title_suffixes": f.TitleSuffixes,
		})
	}
	index := make([]any, 0, len(d.Index))
	for _, ix := range d.Index {
		index = append(index, map[string]any{
			"idx":        ix.Index,
			"value":      ix.Value,
			"record_key": ix.Key,
		})
	}
	return map[string]any{"records": records, "fts": fts, "index": index}
}

// dumpValue renders a value as text, base64-encoding non-UTF-8 payloads.
func dumpValue(v []byte) string {
	if utf8.Valid(v) {
		return string(v)
	}
	return "base64:" + base64.StdEncoding.EncodeToString(v)
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
