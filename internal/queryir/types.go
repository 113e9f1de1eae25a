package queryir

// Condition constrains the value of one secondary index.
//
// This is a sealed interface - only types in this package implement it.
type Condition interface {
	conditionNode() // Marker method - seals interface to this package
}

// Equals matches index values equal to Value.
type Equals struct {
	Value string
}

func (Equals) conditionNode() {}

// GreaterThanOrEqual matches index values >= Value.
type GreaterThanOrEqual struct {
	Value string
}

func (GreaterThanOrEqual) conditionNode() {}

// LessThanOrEqual matches index values <= Value.
type LessThanOrEqual struct {
	Value string
}

func (LessThanOrEqual) conditionNode() {}

// Filter binds a condition to an index id. A record without a value for
// Index never matches.
type Filter struct {
	Index     int
	Condition Condition
}

// Order sorts by the value of one index. Records without a value for Index
// are excluded from ordered results.
type Order struct {
	Index     int
	Ascending bool
}

// Range selects a window of the ordered result.
type Range struct {
	Offset int
	Limit  int // 0 means no limit
}

// Request is a read descriptor. The zero Request selects every record.
type Request struct {
	// Keys restricts results to these exact keys (nil = no restriction,
	// empty = nothing).
	Keys []string

	// KeyPrefixes restricts results to keys starting with any of these
	// prefixes (nil = no restriction).
	KeyPrefixes []string

	// FullTextSearch restricts results to records whose full-text projection
	// matches every whitespace-separated term as a prefix ("" = no search).
	FullTextSearch string

	Filters []Filter
	Order   []Order
	Range   *Range
}

// All selects every record.
func All() Request {
	return Request{}
}

// KeyPrefix selects records whose key starts with any of prefixes.
func KeyPrefix(prefixes ...string) Request {
	return Request{KeyPrefixes: clone(prefixes)}
}

// ForKeys selects the records with the given keys. An empty key list
// selects nothing.
func ForKeys(keys ...string) Request {
	return Request{Keys: append([]string{}, keys...)}
}

// IsAll reports whether r selects every record in key order.
func (r Request) IsAll() bool {
	return r.Keys == nil && len(r.KeyPrefixes) == 0 && r.FullTextSearch == "" &&
		len(r.Filters) == 0 && len(r.Order) == 0 && r.Range == nil
}

// WithKeyPrefix adds an alternative key prefix.
func (r Request) WithKeyPrefix(prefix string) Request {
	out := r.copy()
	out.KeyPrefixes = append(out.KeyPrefixes, prefix)
	return out
}

// WithSearch sets the full-text search.
func (r Request) WithSearch(search string) Request {
	out := r.copy()
	out.FullTextSearch = search
	return out
}

// WithFilter adds an index filter.
func (r Request) WithFilter(index int, cond Condition) Request {
	out := r.copy()
	out.Filters = append(out.Filters, Filter{Index: index, Condition: cond})
	return out
}

// OrderedBy appends an index to the ordering.
func (r Request) OrderedBy(index int, ascending bool) Request {
	out := r.copy()
	out.Order = append(out.Order, Order{Index: index, Ascending: ascending})
	return out
}

// WithRange sets the result window.
func (r Request) WithRange(offset, limit int) Request {
	out := r.copy()
	out.Range = &Range{Offset: offset, Limit: limit}
	return out
}

// WithoutRange clears the result window.
func (r Request) WithoutRange() Request {
	out := r.copy()
	out.Range = nil
	return out
}

// copy returns a deep copy of r.
func (r Request) copy() Request {
	out := Request{
		Keys:           clone(r.Keys),
		KeyPrefixes:    clone(r.KeyPrefixes),
		FullTextSearch: r.FullTextSearch,
		Filters:        clone(r.Filters),
		Order:          clone(r.Order),
	}
	if r.Range != nil {
		rng := *r.Range
		out.Range = &rng
	}
	return out
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
