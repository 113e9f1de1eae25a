package querysql

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thomvis/Construct-sub002/internal/queryir"
)

func TestCompileSelect_All(t *testing.T) {
	compiler := NewCompiler()

	sql, params, err := compiler.CompileSelect(queryir.All(), ProjectRecords)
	require.NoError(t, err)

	assert.Equal(t, "SELECT kv.key, kv.modified_at, kv.value FROM key_value AS kv ORDER BY kv.key COLLATE BINARY ASC", sql)
	assert.Empty(t, params)
}

func TestCompileSelect_KeysProjection(t *testing.T) {
	compiler := NewCompiler()

	sql, _, err := compiler.CompileSelect(queryir.All(), ProjectKeys)
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT kv.key FROM key_value AS kv")
}

func TestCompileSelect_OrderByMandatory(t *testing.T) {
	compiler := NewCompiler()

	testCases := []struct {
		name string
		req  queryir.Request
	}{
		{"all", queryir.All()},
		{"prefix", queryir.KeyPrefix("a::")},
		{"keys", queryir.ForKeys("a", "b")},
		{"search", queryir.All().WithSearch("gob")},
		{"ordered", queryir.All().OrderedBy(1, false)},
		{"filtered", queryir.All().WithFilter(1, queryir.Equals{Value: "x"})},
		{"ranged", queryir.All().WithRange(3, 4)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := compiler.CompileSelect(tc.req, ProjectRecords)
			require.NoError(t, err)
			assert.Contains(t, sql, "ORDER BY")
			assert.Contains(t, sql, "kv.key COLLATE BINARY ASC")
		})
	}
}

func TestCompileSelect_ValuesAreParameterized(t *testing.T) {
	compiler := NewCompiler()

	req := queryir.ForKeys("secret-key").
		WithKeyPrefix("secret-prefix").
		WithSearch("secret-term").
		WithFilter(7, queryir.Equals{Value: "secret-value"})

	sql, params, err := compiler.CompileSelect(req, ProjectRecords)
	require.NoError(t, err)

	assert.NotContains(t, sql, "secret")
	assert.Contains(t, params, "secret-key")
	assert.Contains(t, params, "secret-value")
	assert.Contains(t, params, `"secret-term"*`)
}

func TestCompileSelect_PrefixesAreOred(t *testing.T) {
	compiler := NewCompiler()

	sql, params, err := compiler.CompileSelect(queryir.KeyPrefix("a::", "b::"), ProjectKeys)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE ((kv.key >= ? AND kv.key < ?) OR (kv.key >= ? AND kv.key < ?))")
	assert.Equal(t, []any{"a::", "a:;", "b::", "b:;"}, params)
}

func TestCompileSelect_EmptyKeySetMatchesNothing(t *testing.T) {
	compiler := NewCompiler()

	sql, params, err := compiler.CompileSelect(queryir.ForKeys(), ProjectKeys)
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE 0 ")
	assert.Empty(t, params)
}

func TestCompileSelect_FilterOperators(t *testing.T) {
	compiler := NewCompiler()

	testCases := []struct {
		cond queryir.Condition
		op   string
	}{
		{queryir.Equals{Value: "v"}, "f0.value = ?"},
		{queryir.GreaterThanOrEqual{Value: "v"}, "f0.value >= ?"},
		{queryir.LessThanOrEqual{Value: "v"}, "f0.value <= ?"},
	}

	for _, tc := range testCases {
		sql, params, err := compiler.CompileSelect(queryir.All().WithFilter(4, tc.cond), ProjectKeys)
		require.NoError(t, err)
		assert.Contains(t, sql, tc.op)
		assert.Equal(t, []any{4, "v"}, params)
	}
}

func TestCompileSelect_SearchRanksOnlyWithoutExplicitOrder(t *testing.T) {
	compiler := NewCompiler()

	sql, _, err := compiler.CompileSelect(queryir.All().WithSearch("gob"), ProjectKeys)
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY key_value_fts.rank, kv.key COLLATE BINARY ASC")

	sql, _, err = compiler.CompileSelect(queryir.All().WithSearch("gob").OrderedBy(0, false), ProjectKeys)
	require.NoError(t, err)
	assert.NotContains(t, sql, "rank")
	assert.Contains(t, sql, "ORDER BY o0.value COLLATE BINARY DESC, kv.key COLLATE BINARY ASC")
}

func TestCompileSelect_BlankSearchIsIgnored(t *testing.T) {
	compiler := NewCompiler()

	sql, _, err := compiler.CompileSelect(queryir.All().WithSearch("   "), ProjectKeys)
	require.NoError(t, err)
	assert.NotContains(t, sql, "key_value_fts")
}

func TestCompileSelect_Range(t *testing.T) {
	compiler := NewCompiler()

	sql, params, err := compiler.CompileSelect(queryir.All().WithRange(5, 0), ProjectKeys)
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT -1 OFFSET ?")
	assert.Equal(t, []any{5}, params)

	sql, params, err = compiler.CompileSelect(queryir.All().WithRange(0, 0), ProjectKeys)
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, params)
}

func TestCompileSelect_InvalidRequest(t *testing.T) {
	compiler := NewCompiler()

	_, _, err := compiler.CompileSelect(queryir.All().WithRange(-1, 0), ProjectKeys)
	assert.Error(t, err)

	_, _, err = compiler.CompileSelect(queryir.All(), Projection(42))
	assert.Error(t, err)
}

func TestCompileCount(t *testing.T) {
	compiler := NewCompiler()

	sql, params, err := compiler.CompileCount(queryir.KeyPrefix("x"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT kv.key FROM key_value AS kv WHERE (kv.key >= ? AND kv.key < ?) ORDER BY kv.key COLLATE BINARY ASC)", sql)
	assert.Equal(t, []any{"x", "y"}, params)
}

func TestPrefixUpperBound(t *testing.T) {
	testCases := []struct {
		prefix string
		upper  string
		ok     bool
	}{
		{"a", "b", true},
		{"entry::", "entry:;", true},
		{"a\xff", "b", true},
		{"\xff\xff", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		upper, ok := prefixUpperBound(tc.prefix)
		assert.Equal(t, tc.ok, ok, tc.prefix)
		assert.Equal(t, tc.upper, upper, tc.prefix)
	}
}

func TestMatchExpression(t *testing.T) {
	assert.Equal(t, "", MatchExpression(""))
	assert.Equal(t, "", MatchExpression(" \t\n"))
	assert.Equal(t, `"al"*`, MatchExpression("al"))
	assert.Equal(t, `"fire"* "bol"*`, MatchExpression("  fire   bol "))
	assert.Equal(t, `"say"* """hi"""*`, MatchExpression(`say "hi"`))
	assert.Equal(t, `"OR"*`, MatchExpression("OR"))
}

// Golden tests pin the full statement text for representative requests.

func render(sql string, params []any) []byte {
	if params == nil {
		params = []any{}
	}
	p, _ := json.Marshal(params)
	return []byte(sql + "\n" + string(p) + "\n")
}

func TestGolden(t *testing.T) {
	compiler := NewCompiler()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("select_all", func(t *testing.T) {
		sql, params, err := compiler.CompileSelect(queryir.All(), ProjectRecords)
		require.NoError(t, err)
		g.Assert(t, "select_all", render(sql, params))
	})

	t.Run("select_composite", func(t *testing.T) {
		req := queryir.KeyPrefix("entry::core::").
			WithSearch("gob").
			WithFilter(2, queryir.GreaterThanOrEqual{Value: "001"}).
			OrderedBy(0, true).
			WithRange(20, 10)
		sql, params, err := compiler.CompileSelect(req, ProjectRecords)
		require.NoError(t, err)
		g.Assert(t, "select_composite", render(sql, params))
	})

	t.Run("delete_prefix", func(t *testing.T) {
		sql, params, err := compiler.CompileDelete(queryir.KeyPrefix("even_"))
		require.NoError(t, err)
		g.Assert(t, "delete_prefix", render(sql, params))
	})
}
