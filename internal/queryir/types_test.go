package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	assert.True(t, All().IsAll())
	assert.False(t, KeyPrefix("a").IsAll())
	assert.False(t, All().WithRange(0, 1).IsAll())
}

func TestForKeys_EmptySelectsNothing(t *testing.T) {
	r := ForKeys()
	require.NotNil(t, r.Keys)
	assert.Empty(t, r.Keys)
	assert.False(t, r.IsAll())
	assert.NoError(t, Validate(r))
}

func TestBuilders_DoNotAlias(t *testing.T) {
	base := KeyPrefix("entry::").WithFilter(1, Equals{Value: "a"})

	a := base.WithFilter(2, Equals{Value: "x"})
	b := base.WithFilter(2, Equals{Value: "y"})

	require.Len(t, base.Filters, 1)
	assert.Equal(t, Equals{Value: "x"}, a.Filters[1].Condition)
	assert.Equal(t, Equals{Value: "y"}, b.Filters[1].Condition)

	ranged := base.WithRange(5, 10)
	ranged.Range.Offset = 99
	assert.Nil(t, base.Range)

	again := ranged.WithKeyPrefix("other::")
	again.Range.Limit = 1
	assert.Equal(t, 10, ranged.Range.Limit)
	assert.Equal(t, []string{"entry::"}, ranged.KeyPrefixes)
	assert.Equal(t, []string{"entry::", "other::"}, again.KeyPrefixes)
}

func TestBuilders_Compose(t *testing.T) {
	r := All().
		WithKeyPrefix("a::").
		WithSearch("gob").
		WithFilter(2, GreaterThanOrEqual{Value: "001"}).
		OrderedBy(0, true).
		OrderedBy(3, false).
		WithRange(10, 5)

	assert.Equal(t, Request{
		KeyPrefixes:    []string{"a::"},
		FullTextSearch: "gob",
		Filters:        []Filter{{Index: 2, Condition: GreaterThanOrEqual{Value: "001"}}},
		Order:          []Order{{Index: 0, Ascending: true}, {Index: 3, Ascending: false}},
		Range:          &Range{Offset: 10, Limit: 5},
	}, r)

	assert.Nil(t, r.WithoutRange().Range)
}

func TestConditions_Sealed(t *testing.T) {
	conds := []Condition{Equals{}, GreaterThanOrEqual{}, LessThanOrEqual{}}
	for _, c := range conds {
		switch c.(type) {
		case Equals, GreaterThanOrEqual, LessThanOrEqual:
		default:
			t.Fatalf("unexpected condition %T", c)
		}
	}
}
