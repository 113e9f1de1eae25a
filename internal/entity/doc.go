// Package entity defines the addressing scheme for everything persisted in
// the key-value store.
//
// Every persisted type declares a Prefix. Its key is derived from its identity
// fields and always begins with that prefix followed by Separator, so a
// prefix scan over Prefix.Scope() enumerates every instance of the type.
// Hierarchical entities embed their parent's identity in the key:
//
//	realm::core
//	document::core::srd
//	entry::core::srd::monster::Goblin
//
// "All documents in realm core" is then the scan document::core:: and
// "all entries in document core/srd" is entry::core::srd::.
//
// # Capabilities
//
// Optional behaviour is probed with type assertions, never reflection:
//   - Searchable: contributes one full-text projection
//   - Indexable: contributes secondary index values
//   - KeyConflictResolver: can move itself to a new key on collision
//
// A type that does not implement a capability contributes no derived rows.
//
// # Registry
//
// A Registry maps prefixes to decoders. It is built once at startup with
// NewRegistry, which refuses prefixes that are prefixes of one another.
// Decoding an arbitrary record is a linear prefix match over the registry.
package entity
