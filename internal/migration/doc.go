// Package migration rewrites stored entities in place by running visitors
// over every record in a scope.
//
// Each record is decoded through the entity registry, handed to every
// visitor, and written back only if some visitor changed it. Writes happen in
// a per-record savepoint inside one enclosing transaction, so one bad record
// is logged and skipped without aborting the run.
//
// When a visitor changes an entity's key and the new key is already taken,
// the configured ConflictResolution decides what happens:
//
//	Overwrite{}           write over the existing record
//	Remove{}              drop the visited record
//	Skip{}                leave the visited record untouched
//	Rename{Fallback: cr}  let the entity pick another key (bounded retries),
//	                      then apply cr if it could not
//
// Whether a key is taken is decided against the database as it is when the
// record is written, not against the snapshot of keys taken at the start of
// the run. The snapshot only bounds which records are visited: records
// written during the run are never visited again.
package migration
