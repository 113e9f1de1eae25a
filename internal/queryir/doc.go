// Package queryir describes reads against the key-value store.
//
// A Request is the single parameter object of the query layer. It combines:
//   - a key set and/or a key-prefix set (prefixes are OR-ed)
//   - an optional full-text search
//   - index filters, AND-ed together
//   - an ordering over index ids
//   - an offset/limit range applied after ordering
//
// Requests are values. The With* methods return modified copies and never
// alias the receiver's slices, so a Request can be shared and extended freely:
//
//	base := queryir.KeyPrefix("entry::core::srd::")
//	monsters := base.WithFilter(5, queryir.Equals{Value: "monster"})
//	page := monsters.OrderedBy(0, true).WithRange(20, 10)
//
// # Conditions
//
// Condition is a sealed interface using the marker method pattern. Only
// Equals, GreaterThanOrEqual and LessThanOrEqual implement it, so backends can
// switch over it exhaustively.
//
// Index values are strings. Conditions and ordering compare them with binary
// collation; callers encode numbers so that string order matches numeric
// order.
//
// # Ordering
//
// Whatever ordering a Request names, compiled queries always append the
// record key ascending as a final tie-breaker. Two fetches of the same Request
// against an unmodified store return identical row orders, which keeps
// pagination stable.
package queryir
