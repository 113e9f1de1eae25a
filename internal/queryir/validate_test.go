package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
	}{
		{"all", All()},
		{"prefix", KeyPrefix("a::", "b::")},
		{"keys", ForKeys("a", "b")},
		{"filters", All().WithFilter(1, Equals{Value: "x"}).WithFilter(2, LessThanOrEqual{Value: "9"})},
		{"range", All().WithRange(0, 0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, Validate(tc.req))
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		req     Request
		message string
	}{
		{"empty prefix", KeyPrefix(""), "empty prefix"},
		{"nil condition", All().WithFilter(3, nil), "nil condition"},
		{"negative offset", All().WithRange(-1, 0), "negative offset"},
		{"negative limit", All().WithRange(0, -5), "negative limit"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	err := Validate(KeyPrefix("").WithRange(-1, -1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty prefix")
	assert.Contains(t, err.Error(), "negative offset")
	assert.Contains(t, err.Error(), "negative limit")
}
