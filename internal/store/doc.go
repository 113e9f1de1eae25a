// Package store provides the SQLite-backed key-value record store.
//
// A record is an opaque value under a unique string key, stamped with its
// modification time. Each record may additionally own:
//   - one full-text row (key_value_fts), searched by token prefix
//   - secondary index rows (secondary_index), one value per index id
//
// Derived rows are written in the same transaction as the record, replaced
// wholesale on every put, and deleted with the record (foreign key cascade for
// index rows, trigger for full-text rows).
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every compiled query ends with ORDER BY ... kv.key COLLATE BINARY ASC
//   - Identical requests against an unmodified store return identical orders
//
// Single Writer
//   - Write transactions are serialized by a mutex on the Store
//   - Readers use pooled WAL connections and never block the writer
//   - Nested Transaction calls on a Tx use SAVEPOINTs; they roll back
//     independently but only become durable when the outermost commits
//
// Change Feed
//   - A committed transaction that wrote anything notifies every observer
//   - Observers re-run their request and emit only when the result changed
//
// Loud Decoding
//   - A value that cannot be decoded yields *DecodeError with the raw bytes
//   - "Not found" is never an error
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce the secondary index cascade
//
// The pragmas are part of the DSN so every pooled connection carries them.
package store
