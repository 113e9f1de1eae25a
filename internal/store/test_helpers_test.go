package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Thomvis/Construct-sub002/internal/entity"
	"github.com/Thomvis/Construct-sub002/internal/queryir"
	"github.com/Thomvis/Construct-sub002/internal/testutil"
)

// note is a small Searchable and Indexable entity for store tests.
type note struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

func (*note) EntityPrefix() entity.Prefix { return "note" }
func (n *note) RawKey() string            { return entity.Compose("note", n.ID) }

func (n *note) FTSDocument() entity.FTSDocument {
	return entity.FTSDocument{Title: n.Title}
}

func (n *note) SecondaryIndexValues() entity.IndexValues {
	return entity.IndexValues{0: n.Title, 1: strconv.Itoa(n.Rank)}
}

func testRegistry() *entity.Registry {
	return entity.MustRegistry(entity.TypeOf("note", func() *note { return &note{} }))
}

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{
		WithClock(testutil.NewDeterministicClock()),
		WithLogger(testutil.DiscardLogger()),
		WithRegistry(testRegistry()),
	}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// putInt stores an integer value.
func putInt(t *testing.T, s *Store, key string, v int, opts ...PutOption) {
	t.Helper()
	data, _ := json.Marshal(v)
	if err := s.Put(context.Background(), key, data, opts...); err != nil {
		t.Fatalf("Put(%q) failed: %v", key, err)
	}
}

// fetchInts fetches integer values for a request.
func fetchInts(t *testing.T, s Reader, req queryir.Request) []int {
	t.Helper()
	values, err := FetchAll[int](context.Background(), s, req)
	if err != nil {
		t.Fatalf("FetchAll() failed: %v", err)
	}
	return values
}

func title(t string) PutOption {
	return WithFTS(entity.FTSDocument{Title: t})
}

func index(values map[int]string) PutOption {
	return WithIndexValues(entity.IndexValues(values))
}
