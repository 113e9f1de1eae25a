// Package querysql compiles queryir requests into parameterized SQLite
// statements over the key-value schema.
//
// Schema assumed by the compiler:
//
//	key_value(key, modified_at, value)               -- aliased kv
//	key_value_fts(title, subtitle, body, title_suffixes)  -- FTS5, rowid = kv.rowid
//	secondary_index(idx, value, record_key)
//
// One request becomes exactly one statement:
//   - key and prefix restrictions become WHERE terms; prefixes are compiled to
//     half-open binary key ranges so matching is case-sensitive and can use
//     the primary key index
//   - a full-text search joins key_value_fts and adds a MATCH term
//   - every ordered index joins secondary_index once (inner join, so records
//     without that index value drop out)
//   - every index filter becomes an EXISTS term (AND semantics)
//
// CRITICAL: every statement ends its ORDER BY with kv.key COLLATE BINARY ASC,
// so row order is total and pagination is stable.
// CRITICAL: values are always bound as parameters, never interpolated.
package querysql
