package entity

// FTSDocument is the full-text projection of a record.
type FTSDocument struct {
	Title    string
	Subtitle *string
	Body     *string
}

// IndexValues maps an index id to a lexicographically sortable value.
// Numeric values must be encoded by the caller so that string order matches
// numeric order (for example by zero padding).
type IndexValues map[int]string

// Searchable is implemented by entities with a full-text projection.
type Searchable interface {
	FTSDocument() FTSDocument
}

// Indexable is implemented by entities that contribute secondary index values.
type Indexable interface {
	SecondaryIndexValues() IndexValues
}

// KeyConflictResolver is implemented by entities that can move themselves to
// a different key when their key is already taken. Each call must change
// RawKey.
type KeyConflictResolver interface {
	ResolveKeyConflict()
}
