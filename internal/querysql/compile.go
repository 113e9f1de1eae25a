package querysql

import (
	"fmt"
	"strings"

	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

// Projection selects the columns a compiled SELECT returns.
type Projection int

const (
	// ProjectRecords returns key, modified_at, value.
	ProjectRecords Projection = iota

	// ProjectKeys returns key only.
	ProjectKeys
)

// Compiler compiles queryir requests to parameterized SQL for SQLite.
//
// The zero Compiler is ready to use and safe for concurrent use.
type Compiler struct{}

// NewCompiler creates a new Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// CompileSelect converts a request to a SELECT statement.
// Returns (sql, params, error).
func (c *Compiler) CompileSelect(r queryir.Request, p Projection) (string, []any, error) {
	if err := queryir.Validate(r); err != nil {
		return "", nil, fmt.Errorf("invalid request: %w", err)
	}

	var columns string
	switch p {
	case ProjectRecords:
		columns = "kv.key, kv.modified_at, kv.value"
	case ProjectKeys:
		columns = "kv.key"
	default:
		return "", nil, fmt.Errorf("unsupported projection: %d", p)
	}

	var b builder
	b.write("SELECT ")
	b.write(columns)
	b.write(" FROM key_value AS kv")

	match := MatchExpression(r.FullTextSearch)
	if match != "" {
		b.write(" JOIN key_value_fts ON key_value_fts.rowid = kv.rowid")
	}

	for i, o := range r.Order {
		alias := fmt.Sprintf("o%d", i)
		b.write(fmt.Sprintf(" JOIN secondary_index AS %s ON %s.record_key = kv.key AND %s.idx = ?", alias, alias, alias))
		b.bind(o.Index)
	}

	var where []string
	if r.Keys != nil {
		where = append(where, c.compileKeys(&b, r.Keys))
	}
	if len(r.KeyPrefixes) > 0 {
		where = append(where, c.compilePrefixes(&b, r.KeyPrefixes))
	}
	if match != "" {
		where = append(where, "key_value_fts MATCH ?")
		b.params = append(b.params, match)
	}
	for i, f := range r.Filters {
		term, err := c.compileFilter(&b, i, f)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter %d: %w", i, err)
		}
		where = append(where, term)
	}
	if len(where) > 0 {
		b.write(" WHERE ")
		b.write(strings.Join(where, " AND "))
	}

	b.write(" ORDER BY ")
	b.write(c.orderTerms(r, match != ""))

	if r.Range != nil {
		switch {
		case r.Range.Limit > 0:
			b.write(" LIMIT ? OFFSET ?")
			b.bind(r.Range.Limit, r.Range.Offset)
		case r.Range.Offset > 0:
			b.write(" LIMIT -1 OFFSET ?")
			b.bind(r.Range.Offset)
		}
	}

	return b.sql.String(), b.params, nil
}

// CompileCount converts a request to a statement returning the number of
// matching records, honoring the request's range.
func (c *Compiler) CompileCount(r queryir.Request) (string, []any, error) {
	inner, params, err := c.CompileSelect(r, ProjectKeys)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM (" + inner + ")", params, nil
}

// CompileDelete converts a request to a DELETE of every matching record.
// Derived index and full-text rows are removed by the schema's cascade and
// trigger.
func (c *Compiler) CompileDelete(r queryir.Request) (string, []any, error) {
	inner, params, err := c.CompileSelect(r, ProjectKeys)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM key_value WHERE key IN (" + inner + ")", params, nil
}

// compileKeys compiles an exact key set. An empty set matches nothing.
func (c *Compiler) compileKeys(b *builder, keys []string) string {
	if len(keys) == 0 {
		return "0"
	}
	for _, k := range keys {
		b.bind(k)
	}
	return "kv.key IN (" + placeholders(len(keys)) + ")"
}

// compilePrefixes compiles an OR-set of key prefixes into binary ranges.
func (c *Compiler) compilePrefixes(b *builder, prefixes []string) string {
	terms := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		upper, ok := prefixUpperBound(p)
		if !ok {
			terms = append(terms, "kv.key >= ?")
			b.bind(p)
			continue
		}
		terms = append(terms, "(kv.key >= ? AND kv.key < ?)")
		b.bind(p, upper)
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// compileFilter compiles one index filter to an EXISTS term.
func (c *Compiler) compileFilter(b *builder, i int, f queryir.Filter) (string, error) {
	var op, value string
	switch cond := f.Condition.(type) {
	case queryir.Equals:
		op, value = "=", cond.Value
	case queryir.GreaterThanOrEqual:
		op, value = ">=", cond.Value
	case queryir.LessThanOrEqual:
		op, value = "<=", cond.Value
	default:
		return "", fmt.Errorf("unsupported condition type: %T", f.Condition)
	}

	alias := fmt.Sprintf("f%d", i)
	b.bind(f.Index, value)
	return fmt.Sprintf("EXISTS (SELECT 1 FROM secondary_index AS %s WHERE %s.record_key = kv.key AND %s.idx = ? AND %s.value %s ?)",
		alias, alias, alias, alias, op), nil
}

// orderTerms returns the ORDER BY list.
// MANDATORY: always ends with the key tie-breaker.
func (c *Compiler) orderTerms(r queryir.Request, searching bool) string {
	var terms []string
	for i, o := range r.Order {
		dir := "ASC"
		if !o.Ascending {
			dir = "DESC"
		}
		terms = append(terms, fmt.Sprintf("o%d.value COLLATE BINARY %s", i, dir))
	}
	if len(r.Order) == 0 && searching {
		terms = append(terms, "key_value_fts.rank")
	}
	terms = append(terms, "kv.key COLLATE BINARY ASC")
	return strings.Join(terms, ", ")
}

// prefixUpperBound returns the smallest string greater than every string
// starting with prefix. ok is false when no such bound exists.
func prefixUpperBound(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// builder accumulates SQL text and its positional parameters in order.
type builder struct {
	sql    strings.Builder
	params []any
}

func (b *builder) write(s string) {
	b.sql.WriteString(s)
}

func (b *builder) bind(values ...any) {
	b.params = append(b.params, values...)
}
